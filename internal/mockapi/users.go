package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials はユーザー名またはパスワードが一致しない場合のエラー。
var ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが正しくありません")

// ErrUserNotFound はユーザーが存在しない場合のエラー。
var ErrUserNotFound = errors.New("ユーザーが見つかりません")

// User は登録済みユーザー。
type User struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name はログイン名。
	Name string `json:"name"`
	// DisplayName は表示名。
	DisplayName string `json:"display_name"`
	// LastLoginAt は最終ログイン時刻。未ログインの場合はnil。
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// userRepository はusersテーブルへのアクセスを提供する。
type userRepository struct {
	db *sql.DB
	// cost はbcryptのハッシュコスト。
	cost int
}

// create はパスワードをハッシュ化してユーザーを登録する。
func (r *userRepository) create(ctx context.Context, name, password, displayName string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	u := &User{ID: uuid.New().String(), Name: name, DisplayName: displayName}
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, password_hash, display_name) VALUES (?, ?, ?, ?)",
		u.ID, u.Name, string(hash), u.DisplayName); err != nil {
		return nil, fmt.Errorf("ユーザー登録に失敗: %w", err)
	}
	return u, nil
}

// exists は指定した名前のユーザーが登録済みかどうかを返す。
func (r *userRepository) exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE name = ?", name).Scan(&n); err != nil {
		return false, fmt.Errorf("ユーザー検索に失敗: %w", err)
	}
	return n > 0, nil
}

// authenticate はパスワードを照合し、成功した場合は最終ログイン時刻を更新する。
func (r *userRepository) authenticate(ctx context.Context, name, password string) (*User, error) {
	var (
		u    User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, display_name, password_hash FROM users WHERE name = ?", name,
	).Scan(&u.ID, &u.Name, &u.DisplayName, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = ? WHERE id = ?", now.Format(time.RFC3339), u.ID); err != nil {
		return nil, fmt.Errorf("最終ログイン時刻の更新に失敗: %w", err)
	}
	u.LastLoginAt = &now
	return &u, nil
}

// get はIDでユーザーを取得する。
func (r *userRepository) get(ctx context.Context, id string) (*User, error) {
	var (
		u         User
		lastLogin sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, display_name, last_login_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &u.DisplayName, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザー取得に失敗: %w", err)
	}

	if lastLogin.Valid {
		if t, err := time.Parse(time.RFC3339, lastLogin.String); err == nil {
			u.LastLoginAt = &t
		}
	}
	return &u, nil
}
