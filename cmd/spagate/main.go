// spagate CLIのエントリポイント。
//
// 使い方:
//
//	spagate [--api-url URL] [--session-db PATH] [--json] <command> [flags]
//
// コマンド:
//
//	get     GETリクエストを送信する
//	post    POSTリクエストを送信する
//	login   ログインしてトークンを保存する
//	logout  セッションを削除する
//	whoami  保存されているトークンの内容を表示する
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/nao1215/spagate/internal/cli"
)

// version はビルド時にldflagsで設定する。
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "エラー:", err)
		stop()
		os.Exit(1)
	}
}
