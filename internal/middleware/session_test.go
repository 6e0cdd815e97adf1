package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// --- モック ---

type mockStorage struct {
	*session.MemoryStorage
	loadFn func(ctx context.Context, key string) (string, error)
}

func (m *mockStorage) Load(ctx context.Context, key string) (string, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, key)
	}
	return m.MemoryStorage.Load(ctx, key)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionMiddleware_RestoresPersistedToken(t *testing.T) {
	storage := session.NewMemoryStorage()
	key := uuid.NewString()
	storage.Save(context.Background(), key, "tok123")

	var captured *session.Store
	h := NewSessionMiddleware(SessionConfig{Storage: storage, MaxAge: 3600})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = session.FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: key})
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if captured == nil {
		t.Fatal("store should be injected into context")
	}
	if captured.Key() != key {
		t.Errorf("Key() = %q, want %q", captured.Key(), key)
	}
	if captured.Token() != "tok123" {
		t.Errorf("Token() = %q, want %q", captured.Token(), "tok123")
	}
	if c := findCookie(w.Result(), SessionCookieName); c != nil {
		t.Errorf("cookie should not be reissued without state change: %+v", c)
	}
}

func TestSessionMiddleware_InvalidCookie_GeneratesNewKey(t *testing.T) {
	var captured *session.Store
	h := NewSessionMiddleware(SessionConfig{Storage: session.NewMemoryStorage()})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = session.FromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-uuid"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if captured == nil {
		t.Fatal("store should be injected into context")
	}
	if _, err := uuid.Parse(captured.Key()); err != nil {
		t.Errorf("generated key should be a uuid: %q", captured.Key())
	}
	if captured.IsAuthenticated() {
		t.Error("new session should be unauthenticated")
	}
}

func TestSessionMiddleware_SetToken_IssuesCookie(t *testing.T) {
	storage := session.NewMemoryStorage()
	h := NewSessionMiddleware(SessionConfig{Storage: storage, CookieSecure: true, MaxAge: 3600})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			if err := store.SetToken(r.Context(), "tok123"); err != nil {
				t.Errorf("SetToken: %v", err)
			}
			w.WriteHeader(http.StatusSeeOther)
		}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	c := findCookie(w.Result(), SessionCookieName)
	if c == nil {
		t.Fatal("session cookie should be issued after authentication")
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("cookie should be HttpOnly and Secure: %+v", c)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}
	if got, _ := storage.Load(context.Background(), c.Value); got != "tok123" {
		t.Errorf("persisted token = %q, want %q", got, "tok123")
	}
}

func TestSessionMiddleware_Clear_ExpiresCookie(t *testing.T) {
	storage := session.NewMemoryStorage()
	key := uuid.NewString()
	storage.Save(context.Background(), key, "tok123")

	h := NewSessionMiddleware(SessionConfig{Storage: storage})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			store.Clear(r.Context())
		}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: key})
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	c := findCookie(w.Result(), SessionCookieName)
	if c == nil || c.MaxAge >= 0 {
		t.Fatalf("session cookie should be expired: %+v", c)
	}
	if storage.Len() != 0 {
		t.Errorf("storage should be empty, got %d entries", storage.Len())
	}
}

func TestSessionMiddleware_StorageError_Returns503(t *testing.T) {
	storage := &mockStorage{
		MemoryStorage: session.NewMemoryStorage(),
		loadFn: func(ctx context.Context, key string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	handlerCalled := false
	h := NewSessionMiddleware(SessionConfig{Storage: storage})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if handlerCalled {
		t.Error("handler should not be called")
	}
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestSessionMiddleware_StateTransitionsAreVisibleToHandler(t *testing.T) {
	h := NewSessionMiddleware(SessionConfig{Storage: session.NewMemoryStorage()})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			if store.State() != model.StateUnauthenticated {
				t.Errorf("State() = %q, want unauthenticated", store.State())
			}
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestSessionMiddleware_Login_RotatesPlantedKey(t *testing.T) {
	storage := session.NewMemoryStorage()
	planted := "11111111-1111-4111-8111-111111111111"

	h := NewSessionMiddleware(SessionConfig{Storage: storage, MaxAge: 3600})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			if err := store.SetToken(r.Context(), "victim-token"); err != nil {
				t.Errorf("SetToken: %v", err)
			}
		}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: planted})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	c := findCookie(w.Result(), SessionCookieName)
	if c == nil {
		t.Fatal("session cookie should be issued after authentication")
	}
	if c.Value == planted {
		t.Fatal("login must issue a new session key instead of reusing the one sent by the client")
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		t.Errorf("rotated key should be a uuid: %q", c.Value)
	}
	if got, _ := storage.Load(context.Background(), planted); got != "" {
		t.Errorf("token stored under the pre-login key = %q, want empty", got)
	}
	if got, _ := storage.Load(context.Background(), c.Value); got != "victim-token" {
		t.Errorf("token stored under the new key = %q, want victim-token", got)
	}
}

func TestSessionMiddleware_TokenReplacement_ReissuesCookie(t *testing.T) {
	storage := session.NewMemoryStorage()
	key := uuid.NewString()
	storage.Save(context.Background(), key, "old-token")

	h := NewSessionMiddleware(SessionConfig{Storage: storage, MaxAge: 3600})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, _ := session.FromContext(r.Context())
			if err := store.SetToken(r.Context(), "refreshed-token"); err != nil {
				t.Errorf("SetToken: %v", err)
			}
		}))

	req := httptest.NewRequest(http.MethodPost, "/session/refresh", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: key})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	c := findCookie(w.Result(), SessionCookieName)
	if c == nil {
		t.Fatal("cookie should be reissued when the token is replaced")
	}
	if c.Value != key {
		t.Errorf("cookie value = %q, want existing key %q", c.Value, key)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}
}

func TestSessionMiddleware_ClearIfCurrent_KeepsCookieWhenTokenReplacedElsewhere(t *testing.T) {
	storage := session.NewMemoryStorage()
	key := uuid.NewString()
	storage.Save(context.Background(), key, "stale")

	var captured *session.Store
	h := NewSessionMiddleware(SessionConfig{Storage: storage, MaxAge: 3600})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = session.FromContext(r.Context())
			// 別タブのリクエストが先に新しいトークンを保存した
			storage.Save(r.Context(), key, "fresh")
			deleted, err := captured.ClearIfCurrent(r.Context(), "stale")
			if err != nil || deleted {
				t.Errorf("ClearIfCurrent = (%v, %v), want (false, nil)", deleted, err)
			}
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: key})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if c := findCookie(w.Result(), SessionCookieName); c != nil {
		t.Errorf("cookie should be left alone, got %+v", c)
	}
	if captured.Token() != "fresh" || !captured.IsAuthenticated() {
		t.Errorf("store token = %q, want fresh and authenticated", captured.Token())
	}
	if got, _ := storage.Load(context.Background(), key); got != "fresh" {
		t.Errorf("persisted = %q, want fresh", got)
	}
}
