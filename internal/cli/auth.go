package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/spagate/pkg/session"
)

// loginResult はログインAPIのレスポンスボディ。
type loginResult struct {
	Token    string          `json:"token"`
	UserInfo json.RawMessage `json:"user_info"`
}

// whoamiResult は whoami のJSON出力。
type whoamiResult struct {
	*session.TokenInfo
	Expired  bool            `json:"expired"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

func newLoginCmd(s *Settings) *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "ログインして認証トークンをセッションに保存する",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(s, func(cmd *cobra.Command, env *Env, _ []string) error {
			ctx := cmd.Context()

			var res loginResult
			if err := env.Client.PostJSON(ctx, "/login",
				map[string]string{"user": user, "pass": pass}, true, &res); err != nil {
				return err
			}
			if res.Token == "" {
				return errors.New("ログイン応答にトークンが含まれていません")
			}

			if err := env.Store.Set(ctx, session.KeyToken, res.Token); err != nil {
				return err
			}
			if len(res.UserInfo) > 0 {
				if err := env.Store.Set(ctx, session.KeyUserInfo, string(res.UserInfo)); err != nil {
					return err
				}
			}

			env.Out.Success(fmt.Sprintf("%s としてログインしました", user))
			return nil
		}),
	}

	cmd.Flags().StringVar(&user, "user", "", "ユーザー名")
	cmd.Flags().StringVar(&pass, "pass", "", "パスワード")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")
	return cmd
}

func newLogoutCmd(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "セッションのトークンとユーザー情報を削除する",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(s, func(cmd *cobra.Command, env *Env, _ []string) error {
			if err := env.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			env.Out.Success("ログアウトしました")
			return nil
		}),
	}
}

func newWhoamiCmd(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "保存されているトークンの内容を表示する",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(s, func(cmd *cobra.Command, env *Env, _ []string) error {
			ctx := cmd.Context()

			token, _, err := env.Store.Get(ctx, session.KeyToken)
			if err != nil {
				return err
			}
			info, err := session.InspectToken(token)
			if errors.Is(err, session.ErrNoToken) {
				return errors.New("ログインしていません")
			}
			if err != nil {
				return err
			}

			res := whoamiResult{TokenInfo: info, Expired: info.Expired(time.Now())}
			if raw, ok, _ := env.Store.Get(ctx, session.KeyUserInfo); ok && json.Valid([]byte(raw)) {
				res.UserInfo = json.RawMessage(raw)
			}

			expires := "-"
			if !info.ExpiresAt.IsZero() {
				expires = info.ExpiresAt.Local().Format(time.DateTime)
			}
			env.Out.Print(
				[]string{"USER_ID", "NAME", "ISSUER", "EXPIRES", "EXPIRED"},
				[][]string{{info.UserID, info.Name, info.Issuer, expires, fmt.Sprint(res.Expired)}},
				res,
			)
			return nil
		}),
	}
}
