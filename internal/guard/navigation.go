package guard

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// Navigation はセッションストアの状態遷移を購読し、現在の画面に対する判定を保持する。
// ハンドラーは処理の最後にRedirectを確認し、必要ならリダイレクトする。
type Navigation struct {
	view        View
	unsubscribe func()

	mu       sync.Mutex
	state    model.SessionState
	decision Decision
}

// Follow はストアの購読を開始したNavigationを返す。
// 初期判定はストアの現在の状態から計算する。
func Follow(store *session.Store, view View) *Navigation {
	state := store.State()
	n := &Navigation{
		view:     view,
		state:    state,
		decision: Decide(view, state),
	}
	n.unsubscribe = store.Subscribe(n.onEvent)
	return n
}

func (n *Navigation) onEvent(ev session.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = ev.To
	n.decision = Decide(n.view, ev.To)
}

// State は最後に観測した認証状態を返す。
func (n *Navigation) State() model.SessionState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Decision は現在の判定を返す。
func (n *Navigation) Decision() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.decision
}

// Redirect はリダイレクトが必要な場合にその先のパスを返す。
func (n *Navigation) Redirect() (string, bool) {
	d := n.Decision()
	if d.Render {
		return "", false
	}
	return d.RedirectTo, true
}

// Stop は購読を解除する。
func (n *Navigation) Stop() {
	if n.unsubscribe != nil {
		n.unsubscribe()
	}
}

// Middleware は描画前にガードを評価するミドルウェアを返す。
// セッションミドルウェアの後に配置する。ストアが無い場合は未認証として扱う。
func Middleware(view View) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := model.StateUnauthenticated
			if store, ok := session.FromContext(r.Context()); ok {
				state = store.State()
			}

			d := Decide(view, state)
			if !d.Render {
				slog.Debug("guard redirect",
					slog.String("view", string(view)),
					slog.String("state", string(state)),
					slog.String("path", r.URL.Path),
					slog.String("redirect_to", d.RedirectTo),
				)
				http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UnknownPathHandler は未定義パスを状態に関わらずランディングへリダイレクトするハンドラー。
func UnknownPathHandler() http.Handler {
	return Middleware(ViewUnknown)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
}
