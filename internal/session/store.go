// Package session はブラウザ単位の認証状態（トークン）を保持するセッションストアを提供する。
//
// ストアは認証状態の唯一の情報源であり、永続化はStorageインターフェースの背後に隠蔽する。
// 状態遷移はSubscribeで登録した購読者に通知される。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/queendahyun/internal/model"
)

// Event は認証状態の遷移を表す。
type Event struct {
	From model.SessionState
	To   model.SessionState
}

// Store は1つのブラウザセッションに対応する認証状態。
type Store struct {
	key     string
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
	newKey  func() string

	mu          sync.Mutex
	token       string
	subscribers map[int]func(Event)
	savers      map[int]func(key string)
	nextID      int
}

// NewStore は指定キーのStoreを生成する。
// 永続化済みのトークンはInitializeを呼ぶまで読み込まれない。
func NewStore(storage Storage, key string) *Store {
	return &Store{
		key:         key,
		storage:     storage,
		logger:      slog.Default(),
		now:         time.Now,
		newKey:      uuid.NewString,
		subscribers: make(map[int]func(Event)),
		savers:      make(map[int]func(key string)),
	}
}

// Key はブラウザセッションのキーを返す。
// 未認証から認証済みになるSetTokenでキーは新しい値に差し替わる。
func (s *Store) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Initialize は永続化されたトークンを読み込み、状態を設定する。
// トークンが存在しない場合はエラーにしない。
// JWTのexpクレームが過去のトークンは存在しないものとして扱い、永続化層からも削除する。
func (s *Store) Initialize(ctx context.Context) error {
	key := s.Key()
	token, err := s.storage.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load session token: %w", err)
	}

	if token != "" && tokenExpired(token, s.now()) {
		s.logger.Info("期限切れのトークンを破棄しました", slog.String("session_key", shortKey(key)))
		if _, err := s.storage.DeleteIfToken(ctx, key, token); err != nil {
			return fmt.Errorf("failed to delete expired token: %w", err)
		}
		token = ""
	}

	s.transition(token)
	return nil
}

// SetToken はトークンを永続化し、認証済み状態にする。
// 空または空白のみのトークンはmodel.ErrInvalidTokenを返し、既存の状態を変更しない。
// 未認証からの遷移ではキーを新しく発行し、ログイン前のキーは破棄する。
// 保存に成功するたびにSubscribeSavesの購読者へ現在のキーを通知する。
func (s *Store) SetToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return model.ErrInvalidToken
	}

	s.mu.Lock()
	oldKey := s.key
	rotate := s.token == ""
	s.mu.Unlock()

	key := oldKey
	if rotate {
		key = s.newKey()
	}

	if err := s.storage.Save(ctx, key, token); err != nil {
		return fmt.Errorf("failed to persist session token: %w", err)
	}

	if rotate {
		// ログイン前のキーに紐づく行は残っていても読まれないため、失敗はログのみ
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("ログイン前のセッションキーの削除に失敗しました",
				slog.String("session_key", shortKey(oldKey)),
				slog.String("error", err.Error()),
			)
		}
		s.mu.Lock()
		s.key = key
		s.mu.Unlock()
	}

	s.transition(token)
	s.notifySaved(key)
	return nil
}

// Clear は永続化されたトークンを削除し、未認証状態にする。
// 冪等であり、2回目以降の呼び出しは何もしない。
func (s *Store) Clear(ctx context.Context) error {
	if s.Token() == "" {
		return nil
	}

	if err := s.storage.Delete(ctx, s.Key()); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}

	s.transition("")
	return nil
}

// ClearIfCurrent はストアが指定トークンを保持している場合のみClearする。
// 古いトークンで実行したリクエストの失敗が、その後に設定された新しいトークンを消さないようにする。
// 永続化層のトークンが別リクエストで差し替えられていた場合は、その値を読み直して状態を合わせる。
// 実際にクリアした場合はtrueを返す。
func (s *Store) ClearIfCurrent(ctx context.Context, token string) (bool, error) {
	if token == "" || s.Token() != token {
		return false, nil
	}

	key := s.Key()
	deleted, err := s.storage.DeleteIfToken(ctx, key, token)
	if err != nil {
		return false, fmt.Errorf("failed to delete session token: %w", err)
	}
	if deleted {
		s.transition("")
		return true, nil
	}

	current, err := s.storage.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to reload session token: %w", err)
	}
	s.logger.Info("トークンは別のリクエストで更新済みのため削除しませんでした",
		slog.String("session_key", shortKey(key)),
		slog.Bool("authenticated", current != ""),
	)
	s.transition(current)
	return false, nil
}

// Token は現在のトークンを返す。未認証の場合は空文字列。
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State は現在の認証状態を返す。
func (s *Store) State() model.SessionState {
	return model.StateOf(s.Token())
}

// IsAuthenticated は認証済みかどうかを返す。
func (s *Store) IsAuthenticated() bool {
	return s.State() == model.StateAuthenticated
}

// Session は現在の状態のスナップショットを返す。
func (s *Store) Session() model.Session {
	token := s.Token()
	return model.Session{Token: token, IsAuthenticated: token != ""}
}

// Subscribe は状態遷移の購読者を登録し、登録解除関数を返す。
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// SubscribeSaves はトークンの保存成功ごとに呼ばれる購読者を登録し、登録解除関数を返す。
// 認証状態が変わらないトークンの差し替えでも呼ばれる。引数は保存先のキー。
func (s *Store) SubscribeSaves(fn func(key string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.savers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.savers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notifySaved(key string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.savers))
	for _, fn := range s.savers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// transition はトークンを差し替え、認証状態が変わった場合は購読者に通知する。
// 購読者はロックの外で呼び出す。
func (s *Store) transition(token string) {
	s.mu.Lock()
	from := model.StateOf(s.token)
	s.token = token
	to := model.StateOf(token)

	var subs []func(Event)
	if from != to {
		subs = make([]func(Event), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	ev := Event{From: from, To: to}
	for _, fn := range subs {
		fn(ev)
	}
}

// tokenExpired はJWTのexpクレームが過去かどうかを判定する。
// 署名鍵は外部APIが所有するため検証は行わない。JWTでないトークンは期限切れと判定しない。
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// shortKey はログ出力用にキーの先頭のみを返す。
func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
