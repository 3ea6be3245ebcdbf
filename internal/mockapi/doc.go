// Package mockapi は開発と結合テストで使うAPIサーバーを提供する。
//
// リクエストゲートウェイが付与する token と timestamp ヘッダーを検証し、
// ログイン、プロフィール取得、エコー、遅延応答のエンドポイントを持つ。
// ユーザー情報はSQLiteに保存し、パスワードはbcryptでハッシュ化する。
package mockapi
