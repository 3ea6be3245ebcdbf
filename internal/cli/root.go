package cli

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/spagate/internal/config"
)

// NewRootCmd はspagateのルートコマンドを生成する。
// フラグの初期値は環境変数 API_BASE_URL と SESSION_DB から読み込む。
func NewRootCmd(version string) *cobra.Command {
	cfg := config.LoadClient()
	s := &Settings{}

	cmd := &cobra.Command{
		Use:           "spagate",
		Short:         "リクエストゲートウェイ経由でAPIを呼び出すCLI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.APIURL, "api-url", cfg.APIBaseURL, "APIのベースURL")
	flags.StringVar(&s.SessionDB, "session-db", cfg.SessionDB, "セッションストレージのSQLiteファイル")
	flags.StringVar(&s.SessionID, "session", DefaultSessionID, "セッションID")
	flags.BoolVar(&s.JSON, "json", false, "JSON形式で出力する")
	flags.StringVar(&s.Indicator, "indicator", IndicatorSpinner, "インジケーターの表示方法 (spinner, none)")
	flags.StringVar(&s.FeedAddr, "feed-addr", "", "インジケーター状態をWebSocketで配信するアドレス (例: 127.0.0.1:9100)")
	flags.StringVar(&s.Coordinator, "coordinator", CoordinatorCounting, "インジケーターの切り替え方 (counting, direct)")

	cmd.AddCommand(
		newGetCmd(s),
		newPostCmd(s),
		newLoginCmd(s),
		newLogoutCmd(s),
		newWhoamiCmd(s),
	)
	return cmd
}

// runWithEnv は Env を開いてfnを実行し、終了後に閉じる RunE を返す。
func runWithEnv(s *Settings, fn func(cmd *cobra.Command, env *Env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		env, err := OpenEnv(cmd.Context(), *s, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := env.Close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, env, args)
	}
}
