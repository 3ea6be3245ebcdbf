package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/spagate/pkg/httpclient"
	"github.com/nao1215/spagate/pkg/loading"
	"github.com/nao1215/spagate/pkg/session"
)

// インジケーターの表示方法。
const (
	IndicatorSpinner = "spinner"
	IndicatorNone    = "none"
)

// コーディネーターの種類。
const (
	CoordinatorCounting = "counting"
	CoordinatorDirect   = "direct"
)

// DefaultSessionID は --session を指定しない場合のセッションID。
const DefaultSessionID = "default"

// Settings はグローバルフラグの値。
type Settings struct {
	// APIURL はリクエストゲートウェイのベースURL。
	APIURL string
	// SessionDB はセッションストレージのSQLiteファイルのパス。
	SessionDB string
	// SessionID は使用するセッションの識別子。
	SessionID string
	// JSON はJSON出力にするかどうか。
	JSON bool
	// Indicator はインジケーターの表示方法（spinner または none）。
	Indicator string
	// FeedAddr はインジケーター状態のWebSocket配信とメトリクスを公開するアドレス。空なら公開しない。
	FeedAddr string
	// Coordinator はインジケーターの切り替え方（counting または direct）。
	Coordinator string
}

// Env は1回のコマンド実行で使うリクエストゲートウェイと周辺の部品。
type Env struct {
	// Client はリクエストゲートウェイ。
	Client *httpclient.Client
	// Store はセッションストレージ。
	Store session.Store
	// Indicator はグローバルなローディングインジケーター。
	Indicator *loading.Indicator
	// Out は出力先。
	Out *Output
	// FeedURL はWebSocket配信のURL。配信していない場合は空。
	FeedURL string

	closers []func() error
}

// OpenEnv は設定に従って Env を組み立てる。使い終わったら Close を呼ぶこと。
func OpenEnv(ctx context.Context, s Settings, stdout, stderr io.Writer) (_ *Env, err error) {
	env := &Env{Out: NewOutput(s.JSON, stdout, stderr)}
	defer func() {
		if err != nil {
			_ = env.Close()
		}
	}()

	store, err := openStore(ctx, s)
	if err != nil {
		return nil, err
	}
	env.Store = store
	env.closers = append(env.closers, store.Close)

	env.Indicator = loading.NewIndicator()
	switch s.Indicator {
	case IndicatorSpinner, "":
		env.Indicator.Attach(loading.NewSpinner(stderr, " 通信中..."))
	case IndicatorNone:
	default:
		return nil, fmt.Errorf("不明なインジケーター: %q (spinner または none)", s.Indicator)
	}

	var coordinator loading.Coordinator
	switch s.Coordinator {
	case CoordinatorCounting, "":
		coordinator = loading.NewCounting(env.Indicator)
	case CoordinatorDirect:
		coordinator = loading.NewDirect(env.Indicator)
	default:
		return nil, fmt.Errorf("不明なコーディネーター: %q (counting または direct)", s.Coordinator)
	}

	registry := prometheus.NewRegistry()
	metrics := httpclient.NewMetrics(registry)
	env.Indicator.Attach(metrics)

	if s.FeedAddr != "" {
		if err := env.serveFeed(s.FeedAddr, registry); err != nil {
			return nil, err
		}
	}

	env.Client = httpclient.New(s.APIURL,
		httpclient.WithTokenSource(session.NewTokenSource(store)),
		httpclient.WithCoordinator(coordinator),
		httpclient.WithMetrics(metrics),
	)
	return env, nil
}

// openStore はセッションストレージを開く。
func openStore(ctx context.Context, s Settings) (*session.SQLiteStore, error) {
	if dir := filepath.Dir(s.SessionDB); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("セッションDBのディレクトリ作成に失敗: %w", err)
		}
	}
	id := s.SessionID
	if id == "" {
		id = DefaultSessionID
	}
	store, err := session.OpenSQLite(ctx, s.SessionDB, id)
	if err != nil {
		return nil, fmt.Errorf("セッションストレージを開けません: %w", err)
	}
	return store, nil
}

// serveFeed はインジケーター状態のWebSocket配信とメトリクスをaddrで公開する。
func (e *Env) serveFeed(addr string, registry *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("フィードのリッスンに失敗: %w", err)
	}

	feed := loading.NewFeed(nil)
	e.Indicator.AddObserver(feed)

	mux := http.NewServeMux()
	mux.Handle("/feed", feed)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[CLI] フィードサーバーが停止しました: %v", err)
		}
	}()

	e.FeedURL = "ws://" + ln.Addr().String() + "/feed"
	log.Printf("[CLI] インジケーター状態を配信します: %s", e.FeedURL)
	e.closers = append(e.closers, feed.Close, srv.Close)
	return nil
}

// Close は開いた資源を逆順に解放する。
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
