// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// セッションの永続化方式
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// External API
	APIBaseURL     string        `env:"API_BASE_URL"`
	BlogAPIBaseURL string        `env:"BLOG_API_BASE_URL"`
	MediaBaseURL   string        `env:"MEDIA_BASE_URL"`
	APITimeout     time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// Identity provider
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	// Session
	SessionStorage         string        `env:"SESSION_STORAGE" envDefault:"postgres"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	SessionMaxAge          int           `env:"SESSION_MAX_AGE" envDefault:"604800"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// Form
	PasswordPolicy string `env:"PASSWORD_POLICY" envDefault:"strict"`
	MinSignupAge   int    `env:"MIN_SIGNUP_AGE" envDefault:"13"`

	// Rate Limit（1分あたり・IPごと）
	RateLimitAuth int `env:"RATE_LIMIT_AUTH" envDefault:"20"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"BASE_URL"`

	// Cookie
	CookieSecure bool
	CookieDomain string `env:"COOKIE_DOMAIN"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、未設定の変数をまとめてエラーで返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	var missing []string
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if cfg.SessionStorage == StoragePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.SessionStorage != StoragePostgres && cfg.SessionStorage != StorageMemory {
		return nil, fmt.Errorf("SESSION_STORAGE must be %q or %q: %q", StoragePostgres, StorageMemory, cfg.SessionStorage)
	}
	if cfg.PasswordPolicy != "strict" && cfg.PasswordPolicy != "relaxed" {
		return nil, fmt.Errorf("PASSWORD_POLICY must be \"strict\" or \"relaxed\": %q", cfg.PasswordPolicy)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be positive: %v", cfg.APITimeout)
	}

	if cfg.BlogAPIBaseURL == "" {
		cfg.BlogAPIBaseURL = cfg.APIBaseURL
	}
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	return cfg, nil
}

// LoadDotEnv は.envファイルが存在すれば環境変数として読み込む。
// 既に設定済みの環境変数は上書きしない。ファイルが存在しない場合はエラーにしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
