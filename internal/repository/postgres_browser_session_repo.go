// Package repository はPostgreSQLを使用した永続化層を提供する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/queendahyun/internal/session"
)

// DefaultSessionTTL はブラウザセッションの既定の有効期間。
const DefaultSessionTTL = 7 * 24 * time.Hour

// PostgresBrowserSessionRepo はブラウザセッションキーとアクセストークンの対応を
// browser_sessionsテーブルに保存するsession.Storage実装。
type PostgresBrowserSessionRepo struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresBrowserSessionRepo はPostgresBrowserSessionRepoを生成する。
// ttlが0以下の場合はDefaultSessionTTLを使用する。
func NewPostgresBrowserSessionRepo(db *sql.DB, ttl time.Duration) *PostgresBrowserSessionRepo {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &PostgresBrowserSessionRepo{db: db, ttl: ttl}
}

// Load はキーに紐づくトークンを返す。存在しないか期限切れの場合は空文字列を返す。
func (r *PostgresBrowserSessionRepo) Load(ctx context.Context, key string) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM browser_sessions
		 WHERE id = $1 AND expires_at > now()`,
		key,
	).Scan(&token)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load browser session: %w", err)
	}
	return token, nil
}

// Save はキーにトークンを保存する。既存の行はトークンと有効期限を上書きする。
func (r *PostgresBrowserSessionRepo) Save(ctx context.Context, key, token string) error {
	expiresAt := time.Now().Add(r.ttl)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO browser_sessions (id, token, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 ON CONFLICT (id) DO UPDATE
		 SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		key, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save browser session: %w", err)
	}
	return nil
}

// Delete はキーの行を削除する。
func (r *PostgresBrowserSessionRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM browser_sessions WHERE id = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete browser session: %w", err)
	}
	return nil
}

// DeleteIfToken は保存済みトークンが一致する場合のみ行を削除する。
// 別リクエストが先に新しいトークンを保存していた場合は何もしない。
func (r *PostgresBrowserSessionRepo) DeleteIfToken(ctx context.Context, key, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM browser_sessions WHERE id = $1 AND token = $2`,
		key, token,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete browser session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// PingContext はデータベースへの疎通を確認する。ヘルスチェック用。
func (r *PostgresBrowserSessionRepo) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// compile-time interface check
var _ session.Storage = (*PostgresBrowserSessionRepo)(nil)
