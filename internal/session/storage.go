package session

import (
	"context"
	"sync"
)

// Storage はブラウザセッションキーに紐づくトークンの永続化インターフェース。
// 実装はrepository.PostgresBrowserSessionRepo（本番）とMemoryStorage（テスト・DBなし起動）。
type Storage interface {
	// Load はキーに紐づくトークンを返す。存在しない場合は空文字列を返す。
	Load(ctx context.Context, key string) (string, error)
	// Save はキーにトークンを保存する。既存のトークンは上書きする。
	Save(ctx context.Context, key, token string) error
	// Delete はキーのトークンを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
	// DeleteIfToken はキーのトークンが指定値と一致する場合のみ削除し、削除したかどうかを返す。
	DeleteIfToken(ctx context.Context, key, token string) (bool, error)
}

// MemoryStorage はプロセス内メモリにトークンを保持するStorage実装。
type MemoryStorage struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStorage はMemoryStorageを生成する。
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tokens: make(map[string]string)}
}

// Load はキーに紐づくトークンを返す。
func (m *MemoryStorage) Load(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[key], nil
}

// Save はキーにトークンを保存する。
func (m *MemoryStorage) Save(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

// Delete はキーのトークンを削除する。
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

// DeleteIfToken はトークンが一致する場合のみ削除する。
func (m *MemoryStorage) DeleteIfToken(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[key] != token {
		return false, nil
	}
	delete(m.tokens, key)
	return true, nil
}

// Len は保持しているトークン数を返す。テスト用。
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}

// compile-time interface check
var _ Storage = (*MemoryStorage)(nil)
