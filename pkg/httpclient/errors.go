package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyPath はリクエストパスが空の場合に返るエラー。
var ErrEmptyPath = errors.New("リクエストパスが空です")

// StatusError はサーバーが2xx以外のステータスを返した場合のトランスポートエラー。
type StatusError struct {
	// Method はリクエストのHTTPメソッド。
	Method string
	// URL はリクエスト先の完全なURL。
	URL string
	// StatusCode はレスポンスのHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body []byte
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: %s %s: status=%d, body=%s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

// IsTimeout はエラーがタイムアウトによるものかどうかを返す。
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
