package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout はトランスポートのタイムアウト。クライアント生成時に一度だけ設定される。
const DefaultTimeout = 5 * time.Second

// Transport は実際のネットワーク呼び出しを行うコラボレーター。
type Transport interface {
	// Do はリクエストを送信し、2xxのレスポンスを返す。
	// それ以外はネットワークエラー、タイムアウト、*StatusError のいずれかを返す。
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc は関数を Transport として扱うためのアダプタ。
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do は f(ctx, req) を呼び出す。
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport はnet/httpを使う Transport。
type HTTPTransport struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先のベースURL。
	baseURL string
}

// NewHTTPTransport は新しい HTTPTransport を生成する。
// baseURLには接続先のベースURL（例: "http://localhost:8080"）を指定する。
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Timeout はリクエストのタイムアウトを返す。
func (t *HTTPTransport) Timeout() time.Duration {
	return t.httpClient.Timeout
}

// URL はパスをベースURLと結合した完全なURLを返す。
func (t *HTTPTransport) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return t.baseURL + path
}

// Do はリクエストを送信する。
// net/httpのエラーはラップせずにそのまま返す。
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	url := t.URL(req.Path)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     req.Method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
