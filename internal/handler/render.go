// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"net/http"

	"github.com/hitoshi/queendahyun/internal/middleware"
	"github.com/hitoshi/queendahyun/internal/session"
	"github.com/hitoshi/queendahyun/internal/view"
)

// PageRenderer はページの描画を行う。
type PageRenderer interface {
	Render(w http.ResponseWriter, status int, page string, data any)
}

// baseFor はリクエストのセッション状態とCSRFトークンから共通表示データを組み立てる。
func baseFor(r *http.Request) view.Base {
	authenticated := false
	if store, ok := session.FromContext(r.Context()); ok {
		authenticated = store.IsAuthenticated()
	}
	return view.NewBase(authenticated, middleware.CSRFTokenFromContext(r.Context()))
}

// storeFor はリクエストのセッションストアを返す。
// セッションミドルウェアの外で呼ばれた場合は503を書き込んでfalseを返す。
func storeFor(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		writeSessionUnavailable(w)
		return nil, false
	}
	return store, true
}

// redirect はPOST後の遷移にも使えるよう303で応答する。
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
