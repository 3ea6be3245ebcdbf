// Package session はセッション単位のキー・値ストレージを提供する。
//
// ブラウザのsessionStorageに相当し、ログイン時に受け取った認証トークン（キー "token"）
// などを保持する。リクエストゲートウェイは TokenSource を通じてトークンを読むだけで、
// 書き込みはログイン処理など呼び出し側が行う。
package session
