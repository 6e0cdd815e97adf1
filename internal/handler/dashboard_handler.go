package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/queendahyun/internal/guard"
	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/profile"
	"github.com/hitoshi/queendahyun/internal/session"
	"github.com/hitoshi/queendahyun/internal/view"
)

// ProfileLoader はプロフィール取得とトークン更新のインターフェース。
type ProfileLoader interface {
	Load(ctx context.Context, store *session.Store) (*profile.Outcome, error)
	Refresh(ctx context.Context, store *session.Store) (*profile.Outcome, error)
}

// DashboardHandler は認証済みユーザーのプロフィール画面のハンドラー。
type DashboardHandler struct {
	loader   ProfileLoader
	renderer PageRenderer
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(loader ProfileLoader, renderer PageRenderer) *DashboardHandler {
	return &DashboardHandler{loader: loader, renderer: renderer}
}

// Show はプロフィールを取得して表示する。
// GET / , GET /dashboard
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFor(w, r)
	if !ok {
		return
	}

	outcome, err := h.loader.Load(r.Context(), store)
	if h.handleError(w, r, err) {
		return
	}
	if outcome.Discarded {
		slog.Debug("client went away before the profile response")
		return
	}
	if outcome.RedirectTo != "" {
		redirect(w, r, outcome.RedirectTo)
		return
	}

	h.renderer.Render(w, http.StatusOK, view.PageDashboard, view.DashboardPage{
		Base:         baseFor(r),
		Profile:      outcome.Profile,
		ErrorMessage: outcome.ErrorMessage,
	})
}

// Refresh はトークンを更新してプロフィール画面へ戻る。
// POST /session/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFor(w, r)
	if !ok {
		return
	}

	outcome, err := h.loader.Refresh(r.Context(), store)
	if h.handleError(w, r, err) {
		return
	}
	if outcome.Discarded {
		slog.Debug("client went away before the refresh response")
		return
	}
	if outcome.RedirectTo != "" {
		redirect(w, r, outcome.RedirectTo)
		return
	}
	if outcome.ErrorMessage != "" {
		h.renderer.Render(w, http.StatusOK, view.PageDashboard, view.DashboardPage{
			Base:         baseFor(r),
			ErrorMessage: outcome.ErrorMessage,
		})
		return
	}

	redirect(w, r, guard.PathDashboard)
}

// handleError はローダーのエラーを応答に変換し、応答済みならtrueを返す。
func (h *DashboardHandler) handleError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, model.ErrMissingCredential):
		// ガード通過後に別リクエストでログアウトされた
		redirect(w, r, guard.PathLanding)
	default:
		slog.Error("failed to update session", slog.String("error", err.Error()))
		writeSessionUnavailable(w)
	}
	return true
}
