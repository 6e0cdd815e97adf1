package handler

import (
	"net/http"

	"github.com/hitoshi/queendahyun/internal/view"
)

// PageHandler は静的ページのハンドラー。
type PageHandler struct {
	renderer PageRenderer
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(renderer PageRenderer) *PageHandler {
	return &PageHandler{renderer: renderer}
}

// Landing はランディングページを表示する。
// GET /home
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageLanding, view.NewLandingPage(baseFor(r)))
}

// About は会社紹介ページを表示する。
// GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageAbout, baseFor(r))
}

// Product は製品紹介ページを表示する。
// GET /product
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageProduct, view.NewProductPage(baseFor(r)))
}

// SignInSuccess はデスクトップアプリからのサインイン完了ページを表示する。
// GET /signin/success
func (h *PageHandler) SignInSuccess(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageSignInSuccess, baseFor(r))
}
