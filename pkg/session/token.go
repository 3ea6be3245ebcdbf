package session

import (
	"context"
	"log"
	"time"
)

// tokenReadTimeout はトークン読み込み1回あたりのタイムアウト。
const tokenReadTimeout = time.Second

// TokenSource はセッションストレージから認証トークンを読み出す。
// httpclient.TokenSource を満たす。
type TokenSource struct {
	store Store
}

// NewTokenSource は store を読む TokenSource を生成する。
func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store}
}

// Token はキー "token" の値を返す。
// キーが存在しない場合や読み込みに失敗した場合は空文字列を返す。
func (ts *TokenSource) Token() string {
	ctx, cancel := context.WithTimeout(context.Background(), tokenReadTimeout)
	defer cancel()

	v, ok, err := ts.store.Get(ctx, KeyToken)
	if err != nil {
		log.Printf("[Session] トークンの読み込みに失敗: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
