// Package config は環境変数から各コマンドの設定を読み込む。
// 未設定の項目は開発環境向けのデフォルト値になる。
package config

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// MockAPI は開発用APIサーバーの設定。
type MockAPI struct {
	// Port はリッスンポート。
	Port string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// FrontendURL はCORSで許可するオリジン。
	FrontendURL string
	// DBPath はユーザー情報を保存するSQLiteファイルのパス。
	DBPath string
	// DevUser は起動時に登録する開発用ユーザー名。空の場合は登録しない。
	DevUser string
	// DevPass は開発用ユーザーのパスワード。
	DevPass string
	// TimestampSkew はtimestampヘッダーとサーバー時刻の許容差。
	TimestampSkew time.Duration
}

// LoadMockAPI は環境変数から MockAPI を読み込む。
func LoadMockAPI() MockAPI {
	return MockAPI{
		Port:          GetEnvOr("PORT", "8080"),
		JWTSecret:     GetEnvOr("JWT_SECRET", "dev-secret-key"),
		FrontendURL:   GetEnvOr("FRONTEND_URL", "http://localhost:3000"),
		DBPath:        GetEnvOr("DB_PATH", "mockapi.db"),
		DevUser:       GetEnvOr("DEV_USER", "dev"),
		DevPass:       GetEnvOr("DEV_PASS", "dev-password"),
		TimestampSkew: getDurationOr("TIMESTAMP_SKEW", 5*time.Minute),
	}
}

// Client はCLIクライアントの設定。フラグで上書きされる前の初期値になる。
type Client struct {
	// APIBaseURL はリクエストゲートウェイのベースURL。
	APIBaseURL string
	// SessionDB はセッションストレージのSQLiteファイルのパス。
	SessionDB string
}

// LoadClient は環境変数から Client を読み込む。
func LoadClient() Client {
	return Client{
		APIBaseURL: GetEnvOr("API_BASE_URL", "http://localhost:8080"),
		SessionDB:  GetEnvOr("SESSION_DB", defaultSessionDB()),
	}
}

// defaultSessionDB はユーザー設定ディレクトリ配下のセッションDBパスを返す。
func defaultSessionDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "spagate-session.db"
	}
	return filepath.Join(dir, "spagate", "session.db")
}

// GetEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func GetEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getDurationOr は環境変数を time.Duration として取得する。
// 未設定または不正な値の場合はデフォルト値を返す。
func getDurationOr(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[Config] %s の値が不正なためデフォルト値 %s を使用します: %v", key, defaultValue, err)
		return defaultValue
	}
	return d
}
