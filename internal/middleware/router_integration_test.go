package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/queendahyun/internal/session"
)

// TestRouterIntegration_LoginFlow は Session -> CSRF のチェーンで
// GETで得たCookieとトークンを使ったPOSTがセッションCookieを発行することを検証する。
func TestRouterIntegration_LoginFlow(t *testing.T) {
	storage := session.NewMemoryStorage()

	r := chi.NewRouter()
	r.Use(NewSessionMiddleware(SessionConfig{Storage: storage, MaxAge: 60}))
	r.Use(NewCSRFMiddleware(CSRFConfig{}))

	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(CSRFTokenFromContext(r.Context())))
	})
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		store, _ := session.FromContext(r.Context())
		store.SetToken(r.Context(), "tok123")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	// フォーム表示
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, httptest.NewRequest(http.MethodGet, "/login", nil))
	csrfCookie := findCookie(getW.Result(), csrfCookieName)
	if csrfCookie == nil {
		t.Fatal("CSRF cookie should be issued on GET")
	}
	token := getW.Body.String()
	if token != csrfCookie.Value {
		t.Fatalf("embedded token %q should equal cookie %q", token, csrfCookie.Value)
	}

	// 送信
	form := url.Values{CSRFFieldName: {token}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie)
	postW := httptest.NewRecorder()
	r.ServeHTTP(postW, req)

	if postW.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", postW.Code, http.StatusSeeOther)
	}
	if findCookie(postW.Result(), SessionCookieName) == nil {
		t.Error("session cookie should be issued after login")
	}
	if storage.Len() != 1 {
		t.Errorf("storage entries = %d, want 1", storage.Len())
	}
}

// TestRouterIntegration_ForgedPost_DoesNotTouchSession はCSRF検証に失敗した送信が
// セッションを変更しないことを検証する。
func TestRouterIntegration_ForgedPost_DoesNotTouchSession(t *testing.T) {
	storage := session.NewMemoryStorage()

	r := chi.NewRouter()
	r.Use(NewSessionMiddleware(SessionConfig{Storage: storage}))
	r.Use(NewCSRFMiddleware(CSRFConfig{}))
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		store, _ := session.FromContext(r.Context())
		store.SetToken(r.Context(), "tok123")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if storage.Len() != 0 {
		t.Errorf("storage entries = %d, want 0", storage.Len())
	}
}
