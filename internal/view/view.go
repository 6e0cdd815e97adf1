// Package view はHTMLテンプレートの読み込みとページの描画を提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/queendahyun/internal/blog"
	"github.com/hitoshi/queendahyun/internal/form"
	"github.com/hitoshi/queendahyun/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページ名。テンプレートファイル名から拡張子を除いたもの。
const (
	PageLanding       = "landing"
	PageAbout         = "about"
	PageProduct       = "product"
	PageBlogList      = "blog_list"
	PageBlogPost      = "blog_post"
	PageAuth          = "auth"
	PageDashboard     = "dashboard"
	PageSignInSuccess = "signin_success"
)

var pageNames = []string{
	PageLanding, PageAbout, PageProduct, PageBlogList, PageBlogPost,
	PageAuth, PageDashboard, PageSignInSuccess,
}

// Base は全ページ共通の表示データ。
type Base struct {
	Authenticated bool
	CSRFToken     string
	Year          int
}

// NewBase は共通表示データを生成する。
func NewBase(authenticated bool, csrfToken string) Base {
	return Base{
		Authenticated: authenticated,
		CSRFToken:     csrfToken,
		Year:          time.Now().Year(),
	}
}

// GoogleButton はGoogle Identity Servicesのボタン描画に必要な値。
type GoogleButton struct {
	ClientID  string
	LoginURI  string
	ScriptURL string
}

// AuthPage はサインアップ・ログインフォームの表示データ。
type AuthPage struct {
	Base
	Form      *form.CredentialForm
	Genders   []string
	Countries []string
	Google    GoogleButton
}

// DashboardPage はプロフィール画面の表示データ。
type DashboardPage struct {
	Base
	Profile      *model.UserProfile
	ErrorMessage string
}

// BlogListPage はブログ一覧の表示データ。
type BlogListPage struct {
	Base
	Posts        []blog.Summary
	ErrorMessage string
}

// BlogPostPage はブログ記事の表示データ。
type BlogPostPage struct {
	Base
	Slug         string
	Post         *blog.Post
	NotFound     bool
	ErrorMessage string
}

// Renderer はページごとに layout と組み合わせたテンプレートを保持する。
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer は埋め込みテンプレートを全て解析してRendererを生成する。
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render はページを描画してレスポンスに書き込む。
// 描画に失敗した場合は途中までの出力を破棄して500を返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
