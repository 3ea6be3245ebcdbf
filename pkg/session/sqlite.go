package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nao1215/spagate/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore はSQLiteに保存する Store。
// 1つのデータベースに複数のセッションを保持でき、セッションIDで分離する。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// sessionID はこのストアが扱うセッションの識別子。
	sessionID string
	// ownsDB はCloseでdbを閉じるかどうか。
	ownsDB bool
}

// OpenSQLite はpathのSQLiteデータベースを開き、スキーマを適用する。
// sessionIDが空の場合は新しいセッションIDを採番する。
func OpenSQLite(ctx context.Context, path, sessionID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	s, err := NewSQLiteStore(ctx, db, sessionID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewSQLiteStore は既存のデータベース接続を使う SQLiteStore を生成する。
// sessionIDが空の場合は新しいセッションIDを採番する。
func NewSQLiteStore(ctx context.Context, db *sql.DB, sessionID string) (*SQLiteStore, error) {
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return &SQLiteStore{db: db, sessionID: sessionID}, nil
}

// SessionID はこのストアのセッションIDを返す。
func (s *SQLiteStore) SessionID() string {
	return s.sessionID
}

// Get はキーの値を返す。
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM session_entries WHERE session_id = ? AND key = ?",
		s.sessionID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("セッション値の取得に失敗: %w", err)
	}
	return value, true, nil
}

// Set はキーに値を保存する。既存の値は上書きする。
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_entries (session_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (session_id, key)
		DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, s.sessionID, key, value)
	if err != nil {
		return fmt.Errorf("セッション値の保存に失敗: %w", err)
	}
	return nil
}

// Delete はキーを削除する。
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM session_entries WHERE session_id = ? AND key = ?", s.sessionID, key); err != nil {
		return fmt.Errorf("セッション値の削除に失敗: %w", err)
	}
	return nil
}

// Clear はこのセッションの全キーを削除する。他のセッションには影響しない。
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM session_entries WHERE session_id = ?", s.sessionID); err != nil {
		return fmt.Errorf("セッションの削除に失敗: %w", err)
	}
	return nil
}

// Close はOpenSQLiteで開いたデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
