// 開発用APIサーバーのエントリポイント。
// リクエストゲートウェイの結合確認に使うログイン、プロフィール、エコー、遅延応答のAPIを提供する。
package main

import (
	"context"
	"log"

	"github.com/nao1215/spagate/internal/config"
	"github.com/nao1215/spagate/internal/mockapi"
)

func main() {
	cfg := config.LoadMockAPI()

	server, err := mockapi.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("開発用APIサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("開発用APIサーバーを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("開発用APIサーバーの起動に失敗: %v", err)
	}
}
