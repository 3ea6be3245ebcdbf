package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/spagate/pkg/loading"
)

// TokenSource は認証トークンを提供するコラボレーター。
// ゲートウェイはリクエストごとに Token を呼び出し、値を書き換えることはない。
type TokenSource interface {
	// Token は現在のトークンを返す。存在しない場合は空文字列。
	Token() string
}

// TokenFunc は関数を TokenSource として扱うためのアダプタ。
type TokenFunc func() string

// Token は f() を呼び出す。
func (f TokenFunc) Token() string { return f() }

// RequestInterceptor はリクエスト段階で呼ばれる。
// エラーを返すとリクエストは送信されず、インジケーターを隠してそのエラーを返す。
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor はリクエストが完了するたびに呼ばれる。
// resp と err のどちらか一方が設定される。レスポンスやエラーを書き換えることはできない。
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response, err error)

// Client はリクエストゲートウェイ。
// 複数のgoroutineから同時に呼び出してよい。共有状態はローディングインジケーターのみ。
type Client struct {
	// transport は実際の通信を行うトランスポート。
	transport Transport
	// tokens は認証トークンの取得元。
	tokens TokenSource
	// coordinator はローディングインジケーターの切り替え方。
	coordinator loading.Coordinator
	// now は現在時刻を返す。timestampヘッダーに使用する。
	now func() time.Time
	// requestInterceptors は追加のリクエストインターセプター。
	requestInterceptors []RequestInterceptor
	// responseInterceptors は追加のレスポンスインターセプター。
	responseInterceptors []ResponseInterceptor
}

// Option は Client の生成オプション。
type Option func(*Client)

// WithTransport はトランスポートを差し替える。
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithTokenSource は認証トークンの取得元を設定する。
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithCoordinator はローディングインジケーターの切り替え方を設定する。
func WithCoordinator(co loading.Coordinator) Option {
	return func(c *Client) { c.coordinator = co }
}

// WithClock は現在時刻の取得元を差し替える。
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRequestInterceptor はリクエストインターセプターを追加する。
// 標準のヘッダー付与とローディング表示の後、ボディのシリアライズの前に呼ばれる。
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(c *Client) { c.requestInterceptors = append(c.requestInterceptors, i) }
}

// WithResponseInterceptor はレスポンスインターセプターを追加する。
// インジケーターを隠した後に呼ばれる。
func WithResponseInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.responseInterceptors = append(c.responseInterceptors, i) }
}

// New は新しいリクエストゲートウェイを生成する。
// baseURLには接続先のベースURL（例: "http://localhost:8080"）を指定する。
// タイムアウトは DefaultTimeout に固定される。
// WithCoordinator を指定しない場合、専用のインジケーターに対する loading.Direct を使う。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		transport:   NewHTTPTransport(baseURL, DefaultTimeout),
		tokens:      TokenFunc(func() string { return "" }),
		coordinator: loading.NewDirect(loading.NewIndicator()),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get は指定パスにGETリクエストを送信し、レスポンスボディを返す。
// GETではローディングインジケーターを表示しない。
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
	})
}

// Post は指定パスにdataをJSONボディとしてPOSTし、レスポンスボディを返す。
// loadingがtrueの場合、送信前にインジケーターを表示する。
func (c *Client) Post(ctx context.Context, path string, data any, loading bool) (json.RawMessage, error) {
	return c.do(ctx, &Request{
		Method:  http.MethodPost,
		Path:    path,
		Data:    data,
		Loading: loading,
	})
}

// GetJSON は Get のレスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// PostJSON は Post のレスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, data any, loading bool, result any) error {
	body, err := c.Post(ctx, path, data, loading)
	if err != nil {
		return err
	}
	return decode(body, result)
}

// do はリクエスト段階、送信、レスポンス段階を順に実行する。
// トランスポートのエラーはラップせずに返す。
func (c *Client) do(ctx context.Context, req *Request) (json.RawMessage, error) {
	shown, err := c.runRequestPhase(ctx, req)
	if err != nil {
		c.runResponsePhase(ctx, req, shown, nil, err)
		return nil, err
	}

	resp, err := c.transport.Do(ctx, req)
	c.runResponsePhase(ctx, req, shown, resp, err)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// runRequestPhase はヘッダーを組み立て、必要ならインジケーターを表示し、ボディをシリアライズする。
// shown はこのリクエストがインジケーターを表示したかどうか。
func (c *Client) runRequestPhase(ctx context.Context, req *Request) (shown bool, err error) {
	if strings.TrimSpace(req.Path) == "" {
		return false, ErrEmptyPath
	}

	req.Header = make(http.Header)
	req.Header.Set(HeaderContentType, ContentTypeJSON)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(c.now().Unix(), 10))
	req.Header.Set(HeaderToken, c.tokens.Token())

	if req.Loading {
		c.coordinator.Begin()
		shown = true
	}

	for _, intercept := range c.requestInterceptors {
		if err := intercept(ctx, req); err != nil {
			return shown, err
		}
	}

	if req.Data != nil {
		body, err := json.Marshal(req.Data)
		if err != nil {
			return shown, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		req.Body = body
	}

	req.SentAt = c.now()
	return shown, nil
}

// runResponsePhase はインジケーターを隠してからレスポンスインターセプターを呼ぶ。
func (c *Client) runResponsePhase(ctx context.Context, req *Request, shown bool, resp *Response, err error) {
	c.coordinator.End(shown)
	for _, observe := range c.responseInterceptors {
		observe(ctx, req, resp, err)
	}
}

// decode はレスポンスボディをresultにデシリアライズする。resultがnilなら何もしない。
func decode(body json.RawMessage, result any) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}
