// Package apiclient は外部の認証API・ブログAPIのHTTPクライアントを提供する。
// 応答形式の揺れはこのパッケージの境界で吸収し、呼び出し側には型付きエラーのみを返す。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/queendahyun/internal/model"
)

const (
	// DefaultTimeout は1リクエストあたりのタイムアウト。
	DefaultTimeout = 15 * time.Second
	// maxResponseSize はレスポンスボディの読み取り上限。
	maxResponseSize = 2 << 20

	userAgent = "QueenDahyun-Web/1.0"
)

// 操作名（ログ・メトリクスのラベル）
const (
	OpSignup       = "signup"
	OpLogin        = "login"
	OpGoogleLogin  = "google_login"
	OpFetchProfile = "fetch_profile"
	OpRefreshToken = "refresh_token"
	OpListBlogs    = "list_blogs"
	OpGetBlog      = "get_blog"
)

// CallObserver は外部API呼び出しの結果を記録するインターフェース。
// metrics.Collectorが実装する。
type CallObserver interface {
	ObserveAPICall(op, outcome string, duration time.Duration)
}

// Config はクライアントの設定。
type Config struct {
	BaseURL     string        // 認証APIのベースURL（例: http://localhost:8000/api）
	BlogBaseURL string        // ブログAPIのベースURL。空の場合はBaseURLを使用する
	Timeout     time.Duration // 0の場合はDefaultTimeout
}

// SignupRequest はサインアップ時に送信するフォーム全体。
type SignupRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Country     string `json:"country"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// SignupResponse はサインアップ成功時の応答。
type SignupResponse struct {
	Message string `json:"message"`
}

// TokenResponse はトークン発行系エンドポイントの応答。
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client は外部APIのクライアント。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	observer    CallObserver
	baseURL     string
	blogBaseURL string
	timeout     time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg Config) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	blogBase := cfg.BlogBaseURL
	if blogBase == "" {
		blogBase = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		blogBaseURL: strings.TrimRight(blogBase, "/"),
		timeout:     timeout,
	}
}

// WithObserver は呼び出し結果の記録先を設定する。
func (c *Client) WithObserver(o CallObserver) *Client {
	c.observer = o
	return c
}

// Signup はフォーム全体をJSONで送信してユーザー登録を行う。
// POST /signup
func (c *Client) Signup(ctx context.Context, in SignupRequest) (*SignupResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signup request: %w", err)
	}

	var out SignupResponse
	if err := c.do(ctx, OpSignup, http.MethodPost, c.baseURL+"/signup", "application/json", bytes.NewReader(body), "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login はメールアドレスとパスワードをフォームエンコードで送信し、トークンを取得する。
// POST /token （OAuth2 password grant 形式: username, password）
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	var out TokenResponse
	if err := c.do(ctx, OpLogin, http.MethodPost, c.baseURL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), "", &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &model.UnexpectedResponseError{Op: OpLogin, Reason: "access_token is missing"}
	}
	return &out, nil
}

// GoogleLogin は外部IdPのクレデンシャルを本システムのトークンに交換する。
// POST /google-login
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*TokenResponse, error) {
	body, err := json.Marshal(map[string]string{"token": credential})
	if err != nil {
		return nil, fmt.Errorf("failed to encode google login request: %w", err)
	}

	var out TokenResponse
	if err := c.do(ctx, OpGoogleLogin, http.MethodPost, c.baseURL+"/google-login", "application/json", bytes.NewReader(body), "", &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &model.UnexpectedResponseError{Op: OpGoogleLogin, Reason: "access_token is missing"}
	}
	return &out, nil
}

// FetchProfile はBearerトークンで現在のユーザー情報を取得する。
// GET /user
func (c *Client) FetchProfile(ctx context.Context, token string) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := c.do(ctx, OpFetchProfile, http.MethodGet, c.baseURL+"/user", "", nil, token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken は現在のトークンを新しいトークンに差し替える。
// POST /refresh_token
func (c *Client) RefreshToken(ctx context.Context, token string) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, OpRefreshToken, http.MethodPost, c.baseURL+"/refresh_token", "", nil, token, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &model.UnexpectedResponseError{Op: OpRefreshToken, Reason: "access_token is missing"}
	}
	return &out, nil
}

// ListBlogs はブログ記事の一覧を取得する。
// GET /api/bloglist
func (c *Client) ListBlogs(ctx context.Context) ([]model.BlogPost, error) {
	var out []model.BlogPost
	if err := c.do(ctx, OpListBlogs, http.MethodGet, c.blogBaseURL+"/api/bloglist", "", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBlogByTitle はタイトルで記事を1件取得する。
// GET /api/blog/title/{title}
func (c *Client) GetBlogByTitle(ctx context.Context, title string) (*model.BlogPost, error) {
	var out model.BlogPost
	endpoint := c.blogBaseURL + "/api/blog/title/" + url.PathEscape(title)
	if err := c.do(ctx, OpGetBlog, http.MethodGet, endpoint, "", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do は1回のHTTPリクエストを実行し、成功時はoutにJSONをデコードする。
// リトライは行わない。失敗はすべて型付きエラーに変換して返す。
func (c *Client) do(ctx context.Context, op, method, endpoint, contentType string, body io.Reader, bearer string, out any) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveAPICall(op, outcome, time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network_error"
		c.logger.Warn("外部APIの呼び出しに失敗しました",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		outcome = "network_error"
		return &model.NetworkError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = statusOutcome(resp.StatusCode)
		c.logger.Warn("外部APIがエラーステータスを返しました",
			slog.String("op", op),
			slog.Int("http_status", resp.StatusCode),
		)
		return normalizeError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			outcome = "unexpected_response"
			return &model.UnexpectedResponseError{Op: op, Reason: "invalid JSON: " + err.Error()}
		}
	}

	outcome = "success"
	return nil
}

// statusOutcome はHTTPステータスをメトリクス用の結果ラベルに変換する。
func statusOutcome(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "rejected"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

// IsTimeout はエラーがタイムアウト由来かどうかを判定する。
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
