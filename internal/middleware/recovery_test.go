package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPanicRecorder struct {
	count int
}

func (m *mockPanicRecorder) RecordPanic() {
	m.count++
}

func TestRecoveryMiddleware_RecoversPanic(t *testing.T) {
	rec := &mockPanicRecorder{}
	h := NewRecoveryMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if rec.count != 1 {
		t.Errorf("recorded panics = %d, want 1", rec.count)
	}
}

func TestRecoveryMiddleware_NilRecorder(t *testing.T) {
	h := NewRecoveryMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRecoveryMiddleware_PanicAfterWrite_AbortsResponse(t *testing.T) {
	rec := &mockPanicRecorder{}
	h := NewRecoveryMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>"))
		panic("template exploded")
	}))

	w := httptest.NewRecorder()
	defer func() {
		if got := recover(); got != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want the already written %d", w.Code, http.StatusOK)
		}
		if rec.count != 1 {
			t.Errorf("recorded panics = %d, want 1", rec.count)
		}
	}()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRecoveryMiddleware_AbortHandlerPassesThrough(t *testing.T) {
	rec := &mockPanicRecorder{}
	h := NewRecoveryMiddleware(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if got := recover(); got != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", got)
		}
		if rec.count != 0 {
			t.Errorf("recorded panics = %d, want 0", rec.count)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRecoveryMiddleware_PassesThrough(t *testing.T) {
	h := NewRecoveryMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
