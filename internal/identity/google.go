package identity

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

const (
	// CallbackPath はGoogle Identity Servicesがクレデンシャルを送信するパス。
	CallbackPath = "/auth/google/callback"

	// gsiCSRFField はGoogle Identity Servicesが付与するdouble-submit用のフィールド名（Cookie名と同一）。
	gsiCSRFField = "g_csrf_token"

	defaultClientScriptURL = "https://accounts.google.com/gsi/client"
)

var (
	// ErrCSRFMismatch はg_csrf_tokenのCookieとボディの値が一致しないことを表す。
	ErrCSRFMismatch = errors.New("g_csrf_token mismatch")
	// ErrMissingCredential はコールバックにcredentialが含まれないことを表す。
	ErrMissingCredential = errors.New("credential is missing from callback")
)

// GoogleConfig はGoogle Identity Servicesのボタン描画に必要な設定。
type GoogleConfig struct {
	ClientID string
	// BaseURL は本アプリケーションの公開URL。コールバックURLの組み立てに使用する。
	BaseURL string

	// テスト用にオーバーライド可能なURL
	ClientScriptURL string
}

// GoogleProvider はGoogle Identity Servicesのリダイレクトモードを扱う。
type GoogleProvider struct {
	config GoogleConfig
}

// NewGoogleProvider はGoogleProviderを生成する。
func NewGoogleProvider(config GoogleConfig) *GoogleProvider {
	if config.ClientScriptURL == "" {
		config.ClientScriptURL = defaultClientScriptURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &GoogleProvider{config: config}
}

// ClientID はOAuthクライアントIDを返す。
func (p *GoogleProvider) ClientID() string {
	return p.config.ClientID
}

// LoginURI はIdPがクレデンシャルをPOSTするURLを返す。
func (p *GoogleProvider) LoginURI() string {
	return p.config.BaseURL + CallbackPath
}

// ClientScriptURL はボタン描画用スクリプトのURLを返す。
func (p *GoogleProvider) ClientScriptURL() string {
	return p.config.ClientScriptURL
}

// CallbackCredential はコールバックリクエストからクレデンシャルを取り出す。
// 戻り値のerrorはIdP側の失敗（Exchangeに渡すproviderErr）として扱う。
func (p *GoogleProvider) CallbackCredential(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", err
	}

	cookie, err := r.Cookie(gsiCSRFField)
	if err != nil || cookie.Value == "" {
		return "", ErrCSRFMismatch
	}
	body := r.PostFormValue(gsiCSRFField)
	if body == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(body)) != 1 {
		return "", ErrCSRFMismatch
	}

	credential := r.PostFormValue("credential")
	if credential == "" {
		return "", ErrMissingCredential
	}
	return credential, nil
}
