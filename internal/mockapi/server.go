package mockapi

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/nao1215/spagate/internal/config"
	"github.com/nao1215/spagate/pkg/middleware"
	"github.com/nao1215/spagate/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// maxSlowDelay は /slow が待機する最大時間。
const maxSlowDelay = time.Minute

// Server は開発用APIサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// db はSQLiteデータベース接続。
	db *sql.DB
	// users はユーザー情報のリポジトリ。
	users *userRepository
	// jwtSecret はJWT署名用の秘密鍵。
	jwtSecret string
	// registry は /metrics で公開するメトリクスのレジストリ。
	registry *prometheus.Registry
	// requests はルートとステータスごとのリクエスト数。
	requests *prometheus.CounterVec
}

// NewServer は設定に従ってデータベースを開き、新しいサーバーを生成する。
func NewServer(ctx context.Context, cfg config.MockAPI) (*Server, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	s, err := newServer(ctx, db, cfg, bcrypt.DefaultCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// newServer は既存のデータベース接続を使うサーバーを生成する。
// スキーマを適用し、開発用ユーザーが未登録なら登録する。
func newServer(ctx context.Context, db *sql.DB, cfg config.MockAPI, bcryptCost int) (*Server, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		router:    gin.New(),
		port:      cfg.Port,
		db:        db,
		users:     &userRepository{db: db, cost: bcryptCost},
		jwtSecret: cfg.JWTSecret,
		registry:  registry,
		requests: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "spagate_mockapi_requests_total",
			Help: "Total requests handled by the mock API server",
		}, []string{"route", "code"}),
	}

	if err := s.seedDevUser(ctx, cfg.DevUser, cfg.DevPass); err != nil {
		return nil, err
	}

	s.router.Use(middleware.Recovery())
	s.router.Use(gin.Logger())
	s.router.Use(middleware.CORS([]string{cfg.FrontendURL}))
	s.router.Use(s.countRequests())
	s.setupRoutes(cfg.TimestampSkew)

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はサーバーのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close はデータベース接続を閉じる。
func (s *Server) Close() error {
	return s.db.Close()
}

// CreateUser はユーザーを登録する。
func (s *Server) CreateUser(ctx context.Context, name, password, displayName string) (*User, error) {
	return s.users.create(ctx, name, password, displayName)
}

// seedDevUser は開発用ユーザーが未登録なら登録する。nameが空なら何もしない。
func (s *Server) seedDevUser(ctx context.Context, name, password string) error {
	if name == "" {
		return nil
	}
	ok, err := s.users.exists(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.users.create(ctx, name, password, "開発ユーザー"); err != nil {
		return fmt.Errorf("開発用ユーザーの登録に失敗: %w", err)
	}
	log.Printf("[MockAPI] 開発用ユーザー %q を登録しました", name)
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(skew time.Duration) {
	// ゲートウェイ経由の呼び出しはすべてtimestampヘッダーを持つ
	api := s.router.Group("/")
	api.Use(middleware.Timestamp(skew))
	{
		api.POST("/login", s.handleLogin())
		api.GET("/echo", s.handleEcho())
		api.POST("/echo", s.handleEcho())
		api.GET("/slow", s.handleSlow())
		api.POST("/slow", s.handleSlow())
	}

	authed := api.Group("/")
	authed.Use(middleware.TokenAuth(s.jwtSecret))
	{
		authed.GET("/profile", s.handleProfile())
	}

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mockapi"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

// countRequests はリクエスト数を記録するミドルウェアを返す。
func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// loginRequest はログインAPIのリクエストボディ。
type loginRequest struct {
	User string `json:"user" binding:"required"`
	Pass string `json:"pass" binding:"required"`
}

// LoginResponse はログインAPIのレスポンスボディ。
type LoginResponse struct {
	// Token は発行した認証トークン。
	Token string `json:"token"`
	// UserInfo はログインしたユーザーの情報。
	UserInfo *User `json:"user_info"`
}

// handleLogin はパスワードを照合してトークンを発行するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userとpassが必要です"})
			return
		}

		user, err := s.users.authenticate(c.Request.Context(), req.User, req.Pass)
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("[MockAPI] ログイン処理エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			return
		}

		token, err := middleware.GenerateJWT(s.jwtSecret, user.ID, user.Name)
		if err != nil {
			log.Printf("[MockAPI] JWT生成エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{Token: token, UserInfo: user})
	}
}

// handleProfile は認証済みユーザーの情報を返すハンドラを返す。
func (s *Server) handleProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.users.get(c.Request.Context(), middleware.GetUserID(c))
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("[MockAPI] プロフィール取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// EchoResponse はエコーAPIのレスポンスボディ。
type EchoResponse struct {
	// Method は受信したHTTPメソッド。
	Method string `json:"method"`
	// ContentType は受信したContent-Typeヘッダー。
	ContentType string `json:"content_type"`
	// Timestamp は受信したtimestampヘッダー。
	Timestamp string `json:"timestamp"`
	// Token は受信したtokenヘッダー。
	Token string `json:"token"`
	// Body は受信したボディ。ボディが無い場合はnull。
	Body json.RawMessage `json:"body"`
}

// handleEcho は受信したヘッダーとボディをそのまま返すハンドラを返す。
func (s *Server) handleEcho() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := EchoResponse{
			Method:      c.Request.Method,
			ContentType: c.GetHeader("Content-Type"),
			Timestamp:   c.GetHeader("timestamp"),
			Token:       c.GetHeader("token"),
		}
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ボディの読み込みに失敗しました"})
			return
		}
		if len(raw) > 0 {
			if !json.Valid(raw) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ボディがJSONではありません"})
				return
			}
			resp.Body = raw
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleSlow は ms クエリで指定した時間だけ待ってから応答するハンドラを返す。
// クライアントが切断した場合は待機を中断する。
func (s *Server) handleSlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		ms, err := strconv.Atoi(c.DefaultQuery("ms", "0"))
		if err != nil || ms < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "msは0以上の整数で指定してください"})
			return
		}
		delay := min(time.Duration(ms)*time.Millisecond, maxSlowDelay)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.JSON(http.StatusOK, gin.H{"slept_ms": delay.Milliseconds()})
		case <-c.Request.Context().Done():
			log.Printf("[MockAPI] /slow の待機中にクライアントが切断しました")
		}
	}
}
