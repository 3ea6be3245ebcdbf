// Package cli はspagateコマンドのサブコマンドを提供する。
//
// 各サブコマンドはリクエストゲートウェイを1つ生成して呼び出す。
// 認証トークンはSQLiteのセッションストレージに保存され、
// 次回以降の呼び出しでゲートウェイがtokenヘッダーに付与する。
package cli
