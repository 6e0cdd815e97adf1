package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/queendahyun/internal/guard"
	"github.com/hitoshi/queendahyun/internal/identity"
	"github.com/hitoshi/queendahyun/internal/middleware"
	"github.com/hitoshi/queendahyun/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	SessionStorage session.Storage
	SessionConfig  middleware.SessionConfig
	CSRFConfig     middleware.CSRFConfig
	RateLimiter    *middleware.RateLimiter
	StatusRecorder middleware.StatusRecorder
	PanicRecorder  middleware.PanicRecorder
	MediaOrigins   []string

	// ヘルスチェック・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	Renderer PageRenderer

	// 認証
	Forms      FormSubmitter
	Identity   IdentityExchanger
	Google     CredentialSource
	AuthConfig AuthHandlerConfig

	// プロフィール
	Profile ProfileLoader

	// ブログ
	Blog BlogReader
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → SecurityHeaders → Logging → Metrics → Session → CSRF
//
// /health と /metrics はセッションの外に配置する。
// 各ページにはガードを適用し、認証状態に応じて描画かリダイレクトかを決める。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.PanicRecorder))
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.MediaOrigins...))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	pages := NewPageHandler(deps.Renderer)
	auth := NewAuthHandler(deps.Forms, deps.Identity, deps.Google, deps.Renderer, deps.AuthConfig)
	dashboard := NewDashboardHandler(deps.Profile, deps.Renderer)
	blogs := NewBlogHandler(deps.Blog, deps.Renderer)

	// --- セッション不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- ブラウザ向けのルート ---
	// ミドルウェアスタック: Session → CSRF
	r.Group(func(r chi.Router) {
		sessionCfg := deps.SessionConfig
		sessionCfg.Storage = deps.SessionStorage
		r.Use(middleware.NewSessionMiddleware(sessionCfg))

		csrfCfg := deps.CSRFConfig
		csrfCfg.ExemptPaths = append(csrfCfg.ExemptPaths, identity.CallbackPath)
		r.Use(middleware.NewCSRFMiddleware(csrfCfg))

		// 公開ページ
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ViewPublic))
			r.Get("/home", pages.Landing)
			r.Get("/about", pages.About)
			r.Get("/product", pages.Product)
			r.Get("/blog", blogs.List)
			r.Get("/blog/title/{slug}", blogs.Post)
			r.Post("/logout", auth.Logout)
		})

		// 認証済みのみ
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ViewDashboard))
			r.Get("/", dashboard.Show)
			r.Get("/dashboard", dashboard.Show)
			r.Post("/session/refresh", dashboard.Refresh)
		})
		r.With(guard.Middleware(guard.ViewSignInSuccess)).Get("/signin/success", pages.SignInSuccess)

		// 未認証のみ（認証系の送信はIPごとにレート制限する）
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ViewAuthForm))
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.AuthMiddleware())
			}
			r.Get("/signup", auth.ShowSignup)
			r.Post("/signup", auth.SubmitSignup)
			r.Get("/login", auth.ShowLogin)
			r.Post("/login", auth.SubmitLogin)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware(guard.ViewIdentityCallback))
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.AuthMiddleware())
			}
			r.Post(identity.CallbackPath, auth.GoogleCallback)
		})

		r.NotFound(guard.UnknownPathHandler().ServeHTTP)
	})

	return r
}
