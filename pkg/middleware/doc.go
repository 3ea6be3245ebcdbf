// Package middleware は開発用APIサーバーで使用するGinミドルウェアを提供する。
//
// token ヘッダーのJWT検証、timestamp ヘッダーの時刻検証、パニックリカバリ、
// CORS設定を含む。ヘッダー名はクライアント側のリクエストゲートウェイが
// 付与するものと一致させている。
package middleware
