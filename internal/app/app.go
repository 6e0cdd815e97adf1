package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/queendahyun/internal/apiclient"
	"github.com/hitoshi/queendahyun/internal/blog"
	"github.com/hitoshi/queendahyun/internal/config"
	"github.com/hitoshi/queendahyun/internal/countries"
	"github.com/hitoshi/queendahyun/internal/database"
	"github.com/hitoshi/queendahyun/internal/form"
	"github.com/hitoshi/queendahyun/internal/handler"
	"github.com/hitoshi/queendahyun/internal/identity"
	"github.com/hitoshi/queendahyun/internal/logger"
	"github.com/hitoshi/queendahyun/internal/metrics"
	"github.com/hitoshi/queendahyun/internal/middleware"
	"github.com/hitoshi/queendahyun/internal/profile"
	"github.com/hitoshi/queendahyun/internal/repository"
	"github.com/hitoshi/queendahyun/internal/security"
	"github.com/hitoshi/queendahyun/internal/session"
	"github.com/hitoshi/queendahyun/internal/view"
	"github.com/hitoshi/queendahyun/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envを読み込み、JSON構造化ログをセットアップしてから環境変数のConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envの読み込み（既存の環境変数は上書きしない）
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if !cmd.NeedsConfig() {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("session_storage", cfg.SessionStorage),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// sessionBackend はセッション永続化先とヘルスチェック対象をまとめる。
type sessionBackend struct {
	storage session.Storage
	checker handler.HealthChecker
	db      *sql.DB
}

func (b *sessionBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// openSessionBackend はSESSION_STORAGEに応じてセッションの保存先を開く。
// memoryの場合はDBに接続せず、ヘルスチェック対象もnilになる。
func openSessionBackend(cfg *config.Config) (*sessionBackend, error) {
	if cfg.SessionStorage == config.StorageMemory {
		slog.Warn("using in-memory session storage; sessions are lost on restart")
		return &sessionBackend{storage: session.NewMemoryStorage()}, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	repo := repository.NewPostgresBrowserSessionRepo(db, time.Duration(cfg.SessionMaxAge)*time.Second)
	return &sessionBackend{storage: repo, checker: repo, db: db}, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// runServe はWebサーバーモードで起動する。
// 全依存関係をワイヤリングし、ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. セッション保存先
	backend, err := openSessionBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// 3. 外部APIクライアント
	api := apiclient.NewClient(
		&http.Client{Timeout: cfg.APITimeout},
		slog.Default(),
		apiclient.Config{
			BaseURL:     cfg.APIBaseURL,
			BlogBaseURL: cfg.BlogAPIBaseURL,
			Timeout:     cfg.APITimeout,
		},
	).WithObserver(collector)

	// 4. ドメインサービス
	validator := form.NewValidator(form.PasswordPolicy(cfg.PasswordPolicy), cfg.MinSignupAge)
	forms := form.NewController(api, validator, slog.Default()).WithRecorder(collector)
	bridge := identity.NewBridge(api, slog.Default()).WithRecorder(collector)
	google := identity.NewGoogleProvider(identity.GoogleConfig{
		ClientID: cfg.GoogleClientID,
		BaseURL:  cfg.BaseURL,
	})
	loader := profile.NewLoader(api, slog.Default()).WithRecorder(collector)
	blogService := blog.NewService(api, security.NewContentSanitizer(), cfg.MediaBaseURL, slog.Default())

	renderer, err := view.NewRenderer(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// 5. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.PerMinuteConfig(cfg.RateLimitAuth))
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:         slog.Default(),
		SessionStorage: backend.storage,
		SessionConfig: middleware.SessionConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			MaxAge:       cfg.SessionMaxAge,
		},
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter:    rateLimiter,
		StatusRecorder: collector,
		PanicRecorder:  collector,
		MediaOrigins:   mediaOrigins(cfg.MediaBaseURL),

		HealthChecker:  backend.checker,
		MetricsHandler: metrics.SetupMetricsRoute(reg),

		Renderer: renderer,

		Forms:    forms,
		Identity: bridge,
		Google:   google,
		AuthConfig: handler.AuthHandlerConfig{
			Genders:   form.Genders,
			Countries: countries.Names(),
		},

		Profile: loader,
		Blog:    blogService,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// シグナル受信またはListenAndServeの失敗で停止する
		<-gctx.Done()
		slog.Info("shutting down web server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れブラウザセッションのクリーンアップを定期実行する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	if cfg.SessionStorage == config.StorageMemory {
		return fmt.Errorf("worker requires SESSION_STORAGE=%s", config.StoragePostgres)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	job := cleanup.NewCleanupJob(db, slog.Default()).WithRecorder(collector)

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.SessionCleanupInterval),
	)

	// ctxがキャンセルされるまでブロックする
	job.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.SessionStorage == config.StorageMemory {
		slog.Info("SESSION_STORAGE=memory; no migrations to run")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	result, err := database.ApplyMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !result.Applied() {
		slog.Info("database schema already up to date", slog.Uint64("version", uint64(result.To)))
		return nil
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("from_version", uint64(result.From)),
		slog.Uint64("to_version", uint64(result.To)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// mediaOrigins はメディアURLからCSPに追加するオリジンを取り出す。
func mediaOrigins(mediaBaseURL string) []string {
	u, err := url.Parse(mediaBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
