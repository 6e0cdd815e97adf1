package middleware

import (
	"net/http"
	"strings"
)

// googleIdentityOrigin はGoogle Identity Servicesのスクリプト・ボタンの配信元。
const googleIdentityOrigin = "https://accounts.google.com"

// ContentSecurityPolicy はサイト全体のCSPを組み立てる。
// mediaOriginsにはブログ画像の配信元を指定する。
func ContentSecurityPolicy(mediaOrigins ...string) string {
	img := []string{"'self'", "data:"}
	for _, o := range mediaOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			img = append(img, o)
		}
	}

	directives := []string{
		"default-src 'self'",
		"script-src 'self' " + googleIdentityOrigin + "/gsi/client",
		"style-src 'self' 'unsafe-inline' " + googleIdentityOrigin + "/gsi/style",
		"frame-src " + googleIdentityOrigin + "/gsi/",
		"connect-src 'self' " + googleIdentityOrigin + "/gsi/",
		"img-src " + strings.Join(img, " "),
		"media-src " + strings.Join(img, " "),
		"form-action 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
	}
	return strings.Join(directives, "; ")
}

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
// GoogleのサインインポップアップのためCOOPはsame-origin-allow-popupsとする。
func NewSecurityHeadersMiddleware(mediaOrigins ...string) func(next http.Handler) http.Handler {
	csp := ContentSecurityPolicy(mediaOrigins...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin-allow-popups")
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}
