package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/queendahyun/internal/blog"
	"github.com/hitoshi/queendahyun/internal/view"
)

// BlogReader はブログ記事の取得インターフェース。
type BlogReader interface {
	List(ctx context.Context) ([]blog.Summary, error)
	Get(ctx context.Context, slug string) (*blog.Post, error)
}

// BlogHandler はブログ一覧・詳細のハンドラー。
type BlogHandler struct {
	reader   BlogReader
	renderer PageRenderer
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(reader BlogReader, renderer PageRenderer) *BlogHandler {
	return &BlogHandler{reader: reader, renderer: renderer}
}

// List は記事一覧を表示する。取得失敗時は再試行リンク付きのエラーを表示する。
// GET /blog
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := view.BlogListPage{Base: baseFor(r)}
	status := http.StatusOK

	posts, err := h.reader.List(r.Context())
	if err != nil {
		slog.Warn("failed to list blog posts", slog.String("error", err.Error()))
		page.ErrorMessage = blog.MessageListFailed
		status = http.StatusBadGateway
	}
	page.Posts = posts

	h.renderer.Render(w, status, view.PageBlogList, page)
}

// Post は記事の詳細を表示する。
// GET /blog/title/{slug}
func (h *BlogHandler) Post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page := view.BlogPostPage{Base: baseFor(r), Slug: slug}
	status := http.StatusOK

	post, err := h.reader.Get(r.Context(), slug)
	switch {
	case errors.Is(err, blog.ErrNotFound):
		page.NotFound = true
		status = http.StatusNotFound
	case err != nil:
		slog.Warn("failed to get blog post",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		page.ErrorMessage = blog.MessagePostFailed
		status = http.StatusBadGateway
	default:
		page.Post = post
	}

	h.renderer.Render(w, status, view.PageBlogPost, page)
}
