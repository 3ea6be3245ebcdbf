package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/nao1215/spagate/internal/config"
	"github.com/nao1215/spagate/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testJWTSecret はテスト用のJWT署名秘密鍵。
const testJWTSecret = "test-secret-key"

// newTestServer はインメモリSQLiteを使うテスト用サーバーを生成する。
// 開発用ユーザー dev / dev-pass が登録済みになる。
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDB接続に失敗: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s, err := newServer(context.Background(), db, config.MockAPI{
		Port:          "0",
		JWTSecret:     testJWTSecret,
		FrontendURL:   "http://localhost:3000",
		DevUser:       "dev",
		DevPass:       "dev-pass",
		TimestampSkew: time.Minute,
	}, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("サーバーの生成に失敗: %v", err)
	}
	return s
}

// doRequest はゲートウェイと同じヘッダーを付けてリクエストを送る。
// tokenが空の場合もtokenヘッダーは空文字列で送られる。
func doRequest(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("token", token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login は開発用ユーザーでログインしてトークンを返す。
func login(t *testing.T, s *Server) string {
	t.Helper()

	w := doRequest(t, s, http.MethodPost, "/login", `{"user":"dev","pass":"dev-pass"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("ログインに失敗: status=%d body=%s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスのパースに失敗: %v", err)
	}
	return resp.Token
}

// TestHandleLogin はログインハンドラのテスト。
func TestHandleLogin(t *testing.T) {
	t.Parallel()

	t.Run("正しいパスワードでトークンとユーザー情報を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodPost, "/login", `{"user":"dev","pass":"dev-pass"}`, "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		var resp LoginResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp.Token == "" {
			t.Error("tokenフィールドが空")
		}
		if resp.UserInfo == nil || resp.UserInfo.Name != "dev" || resp.UserInfo.LastLoginAt == nil {
			t.Errorf("user_info = %+v", resp.UserInfo)
		}
	})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"パスワードが違う場合は401を返す", `{"user":"dev","pass":"wrong"}`, http.StatusUnauthorized},
		{"存在しないユーザーは401を返す", `{"user":"nobody","pass":"dev-pass"}`, http.StatusUnauthorized},
		{"passが無い場合は400を返す", `{"user":"dev"}`, http.StatusBadRequest},
		{"JSONでないボディは400を返す", `user=dev`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			w := doRequest(t, s, http.MethodPost, "/login", tt.body, "")
			if w.Code != tt.wantCode {
				t.Errorf("ステータスコード: got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}

	t.Run("timestampヘッダーが無い場合は400を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"user":"dev","pass":"dev-pass"}`))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleProfile はプロフィール取得ハンドラのテスト。
func TestHandleProfile(t *testing.T) {
	t.Parallel()

	t.Run("ログイン済みユーザーの情報を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodGet, "/profile", "", login(t, s))
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}

		var user User
		if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if user.Name != "dev" || user.DisplayName != "開発ユーザー" {
			t.Errorf("user = %+v", user)
		}
		if user.LastLoginAt == nil {
			t.Error("last_login_atが設定されていない")
		}
	})

	t.Run("空のtokenヘッダーでは401を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodGet, "/profile", "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("削除済みユーザーのトークンでは404を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		token, err := middleware.GenerateJWT(testJWTSecret, "missing-user", "ghost")
		if err != nil {
			t.Fatalf("テスト用JWT生成に失敗: %v", err)
		}
		w := doRequest(t, s, http.MethodGet, "/profile", "", token)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleEcho はエコーハンドラのテスト。
func TestHandleEcho(t *testing.T) {
	t.Parallel()

	t.Run("受信したヘッダーとボディを返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodPost, "/echo", `{"a":1}`, "T")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}

		var resp EchoResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if resp.Method != http.MethodPost || resp.Token != "T" {
			t.Errorf("resp = %+v", resp)
		}
		if resp.ContentType != "application/json;charset=UTF-8" {
			t.Errorf("content_type = %q", resp.ContentType)
		}
		if string(resp.Body) != `{"a":1}` {
			t.Errorf("body = %s, want %s", resp.Body, `{"a":1}`)
		}
	})

	t.Run("ボディが無い場合はnullを返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodGet, "/echo", "", "")

		var resp map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("レスポンスのパースに失敗: %v", err)
		}
		if string(resp["body"]) != "null" {
			t.Errorf("body = %s, want null", resp["body"])
		}
	})

	t.Run("JSONでないボディは400を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodPost, "/echo", "{broken", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleSlow は遅延応答ハンドラのテスト。
func TestHandleSlow(t *testing.T) {
	t.Parallel()

	t.Run("指定した時間待ってから応答する", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		start := time.Now()
		w := doRequest(t, s, http.MethodGet, "/slow?ms=30", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード: got %d, want %d", w.Code, http.StatusOK)
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("経過時間 = %v, want >= 30ms", elapsed)
		}
	})

	t.Run("負の値は400を返す", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t)
		w := doRequest(t, s, http.MethodGet, "/slow?ms=-1", "", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード: got %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHealthAndMetrics はヘルスチェックとメトリクスのテスト。
func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("ヘルスチェックのステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("メトリクスのステータスコード: got %d, want %d", w.Code, http.StatusOK)
	}
	want := `spagate_mockapi_requests_total{code="200",route="/health"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("メトリクスに %q が含まれていない:\n%s", want, w.Body.String())
	}
}

// TestSeedDevUser は開発用ユーザー登録のテスト。
func TestSeedDevUser(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	ctx := context.Background()

	if err := s.seedDevUser(ctx, "dev", "other-pass"); err != nil {
		t.Fatalf("2回目のseedDevUser()でエラーが発生: %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE name = 'dev'").Scan(&n); err != nil {
		t.Fatalf("件数の取得に失敗: %v", err)
	}
	if n != 1 {
		t.Errorf("devユーザー数 = %d, want 1", n)
	}

	// 既存ユーザーのパスワードは上書きされない
	if _, err := s.users.authenticate(ctx, "dev", "dev-pass"); err != nil {
		t.Errorf("元のパスワードで認証できない: %v", err)
	}
}
