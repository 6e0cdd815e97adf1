// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// SessionCookieName はブラウザセッションのキーを保持するCookieの名前。
const SessionCookieName = "qd_session"

// SessionConfig はセッションミドルウェアの設定。
type SessionConfig struct {
	Storage      session.Storage
	CookieSecure bool
	CookieDomain string
	MaxAge       int // 秒
}

// NewSessionMiddleware はHTTP Only Cookieのキーからブラウザセッションのストアを読み込み、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieはトークンを保存するたびに発行し、未認証になった時点で失効させる。
func NewSessionMiddleware(config SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					key = cookie.Value
				}
			}
			if key == "" {
				key = uuid.NewString()
			}

			store := session.NewStore(config.Storage, key)
			if err := store.Initialize(r.Context()); err != nil {
				slog.Error("failed to initialize session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewUnavailableError("session storage"))
				return
			}

			// トークン保存のたびに現在のキーでCookieを発行し直す。ログイン時はキーが差し替わる
			unsubscribeSaves := store.SubscribeSaves(func(key string) {
				http.SetCookie(w, sessionCookie(config, key, config.MaxAge))
			})
			defer unsubscribeSaves()

			unsubscribe := store.Subscribe(func(ev session.Event) {
				if ev.To == model.StateUnauthenticated {
					http.SetCookie(w, sessionCookie(config, "", -1))
				}
			})
			defer unsubscribe()

			next.ServeHTTP(w, r.WithContext(session.WithStore(r.Context(), store)))
		})
	}
}

func sessionCookie(config SessionConfig, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
