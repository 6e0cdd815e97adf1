package session

import "context"

type contextKey struct{}

// WithStore はコンテキストにStoreを注入する。
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext はコンテキストからStoreを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	return s, ok && s != nil
}
