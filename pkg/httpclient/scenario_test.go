package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/spagate/pkg/loading"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestLoginScenario はログインの一連の流れを検証する。
func TestLoginScenario(t *testing.T) {
	t.Parallel()

	ind, _ := newIndicator()
	var sent map[string]string
	client := New("http://localhost",
		WithCoordinator(loading.NewDirect(ind)),
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			if err := json.Unmarshal(req.Body, &sent); err != nil {
				t.Errorf("リクエストボディのパースに失敗: %v", err)
			}
			return &Response{StatusCode: http.StatusOK, Body: json.RawMessage(`{"token":"T"}`)}, nil
		})),
	)

	body, err := client.Post(context.Background(), "/login", map[string]string{"user": "a", "pass": "b"}, true)
	if err != nil {
		t.Fatalf("Post()でエラーが発生: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	if got["token"] != "T" {
		t.Errorf("token = %q, want %q", got["token"], "T")
	}
	if sent["user"] != "a" || sent["pass"] != "b" {
		t.Errorf("sent = %v, want user=a pass=b", sent)
	}
	if state := ind.State(); state != loading.Hidden {
		t.Errorf("状態 = %v, want %v", state, loading.Hidden)
	}
}

// TestTimeoutScenario はタイムアウト時の動作を検証する。
func TestTimeoutScenario(t *testing.T) {
	t.Parallel()

	t.Run("トランスポートのタイムアウトエラーがそのまま返りインジケーターは表示されないこと", func(t *testing.T) {
		t.Parallel()

		ind, log := newIndicator()
		timeoutErr := context.DeadlineExceeded
		client := New("http://localhost",
			WithCoordinator(loading.NewDirect(ind)),
			WithTransport(TransportFunc(func(context.Context, *Request) (*Response, error) {
				return nil, timeoutErr
			})),
		)

		_, err := client.Get(context.Background(), "/profile")
		if err != timeoutErr {
			t.Errorf("err = %v, want %v", err, timeoutErr)
		}
		if log.Len() != 0 {
			t.Errorf("遷移数 = %d, want 0", log.Len())
		}
		if state := ind.State(); state != loading.Hidden {
			t.Errorf("状態 = %v, want %v", state, loading.Hidden)
		}
	})

	t.Run("HTTPTransportのタイムアウトがIsTimeoutで判定できること", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer ts.Close()
		defer close(release)

		ind, log := newIndicator()
		client := New(ts.URL,
			WithCoordinator(loading.NewDirect(ind)),
			WithTransport(NewHTTPTransport(ts.URL, 50*time.Millisecond)),
		)

		_, err := client.Get(context.Background(), "/profile")
		if !IsTimeout(err) {
			t.Fatalf("err = %v, want timeout", err)
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			t.Errorf("タイムアウトがStatusErrorとして返った: %v", err)
		}
		if log.Len() != 0 {
			t.Errorf("遷移数 = %d, want 0", log.Len())
		}
	})
}

// runConcurrentPosts はローディング付きPOSTを2件並行に実行する。
// Aは release が閉じられるまで完了せず、BはAの送信後に開始してすぐに完了する。
// Bの完了直後とAの完了後のインジケーター状態を返す。
func runConcurrentPosts(t *testing.T, newCoordinator func(loading.Display) loading.Coordinator) (afterB, afterAll loading.State) {
	t.Helper()

	ind, _ := newIndicator()
	aDispatched := make(chan struct{})
	release := make(chan struct{})

	client := New("http://localhost",
		WithCoordinator(newCoordinator(ind)),
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			switch req.Path {
			case "/a":
				close(aDispatched)
				<-release
				time.Sleep(100 * time.Millisecond)
			case "/b":
				time.Sleep(10 * time.Millisecond)
			}
			return &Response{StatusCode: http.StatusOK, Body: json.RawMessage(`{}`)}, nil
		})),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := client.Post(context.Background(), "/a", nil, true); err != nil {
			t.Errorf("Aでエラーが発生: %v", err)
		}
	}()

	<-aDispatched
	if _, err := client.Post(context.Background(), "/b", nil, true); err != nil {
		t.Errorf("Bでエラーが発生: %v", err)
	}
	afterB = ind.State()

	close(release)
	wg.Wait()
	return afterB, ind.State()
}

// TestConcurrentLoadingPosts はローディング付きPOSTが並行した場合のインジケーター状態を検証する。
func TestConcurrentLoadingPosts(t *testing.T) {
	t.Parallel()

	t.Run("Directでは先に完了したBがAの実行中にインジケーターを隠してしまうこと", func(t *testing.T) {
		t.Parallel()

		afterB, afterAll := runConcurrentPosts(t, func(d loading.Display) loading.Coordinator {
			return loading.NewDirect(d)
		})
		if afterB != loading.Hidden {
			t.Errorf("Bの完了直後の状態 = %v, want %v (既知の後勝ち競合)", afterB, loading.Hidden)
		}
		if afterAll != loading.Hidden {
			t.Errorf("全完了後の状態 = %v, want %v", afterAll, loading.Hidden)
		}
	})

	t.Run("CountingではAが完了するまで表示が続くこと", func(t *testing.T) {
		t.Parallel()

		afterB, afterAll := runConcurrentPosts(t, func(d loading.Display) loading.Coordinator {
			return loading.NewCounting(d)
		})
		if afterB != loading.Visible {
			t.Errorf("Bの完了直後の状態 = %v, want %v", afterB, loading.Visible)
		}
		if afterAll != loading.Hidden {
			t.Errorf("全完了後の状態 = %v, want %v", afterAll, loading.Hidden)
		}
	})
}

// TestMetrics はメトリクスの記録を検証する。
func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	ind := loading.NewIndicator(metrics)

	var fail bool
	client := New("http://localhost",
		WithMetrics(metrics),
		WithCoordinator(loading.NewDirect(ind)),
		WithTransport(TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
			if testutil.ToFloat64(metrics.indicator) != 1 && req.Loading {
				t.Errorf("送信時のゲージ = %v, want 1", testutil.ToFloat64(metrics.indicator))
			}
			if fail {
				return nil, &StatusError{Method: req.Method, StatusCode: http.StatusBadRequest}
			}
			return &Response{StatusCode: http.StatusOK}, nil
		})),
	)

	_, _ = client.Post(context.Background(), "/save", nil, true)
	_, _ = client.Get(context.Background(), "/profile")
	fail = true
	_, _ = client.Post(context.Background(), "/save", nil, true)
	_, _ = client.Get(context.Background(), "")

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodPost, outcomeSuccess)); got != 1 {
		t.Errorf("POST success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, outcomeSuccess)); got != 1 {
		t.Errorf("GET success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodPost, outcomeStatusError)); got != 1 {
		t.Errorf("POST status_error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues(http.MethodGet, outcomeError)); got != 1 {
		t.Errorf("GET error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.indicator); got != 0 {
		t.Errorf("完了後のゲージ = %v, want 0", got)
	}
}

// TestIsTimeout はIsTimeout関数を検証する。
func TestIsTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "DeadlineExceeded", err: context.DeadlineExceeded, want: true},
		{name: "StatusError", err: &StatusError{StatusCode: http.StatusGatewayTimeout}, want: false},
		{name: "その他のエラー", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
