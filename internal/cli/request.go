package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

// errInvalidData は --data がJSONでない場合のエラー。
var errInvalidData = errors.New("--data はJSONで指定してください")

func newGetCmd(s *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "get PATH",
		Short: "GETリクエストを送信する（インジケーターは表示しない）",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEnv(s, func(cmd *cobra.Command, env *Env, args []string) error {
			body, err := env.Client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			env.Out.Body(body)
			return nil
		}),
	}
}

func newPostCmd(s *Settings) *cobra.Command {
	var data string
	var showLoading bool

	cmd := &cobra.Command{
		Use:   "post PATH",
		Short: "JSONボディ付きのPOSTリクエストを送信する",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEnv(s, func(cmd *cobra.Command, env *Env, args []string) error {
			var payload any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errInvalidData
				}
				payload = json.RawMessage(data)
			}

			body, err := env.Client.Post(cmd.Context(), args[0], payload, showLoading)
			if err != nil {
				return err
			}
			env.Out.Body(body)
			return nil
		}),
	}

	cmd.Flags().StringVar(&data, "data", "", "リクエストボディ（JSON）")
	cmd.Flags().BoolVar(&showLoading, "loading", false, "応答までインジケーターを表示する")
	return cmd
}
