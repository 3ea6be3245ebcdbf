package session

import (
	"context"
	"sync"
)

// セッションストレージのキー。
const (
	// KeyToken は認証トークンのキー。
	KeyToken = "token"
	// KeyUserInfo はログインユーザー情報（JSON）のキー。
	KeyUserInfo = "userInfo"
)

// Store はセッション単位のキー・値ストレージ。
type Store interface {
	// Get はキーの値を返す。キーが存在しない場合は ok=false。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set はキーに値を保存する。
	Set(ctx context.Context, key, value string) error
	// Delete はキーを削除する。存在しなくてもエラーにはならない。
	Delete(ctx context.Context, key string) error
	// Clear はセッションの全キーを削除する。
	Clear(ctx context.Context) error
}

// MemoryStore はプロセス内のマップに保持する Store。プロセス終了とともに消える。
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore は空の MemoryStore を生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get はキーの値を返す。
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set はキーに値を保存する。
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete はキーを削除する。
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear は全キーを削除する。
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
	return nil
}
