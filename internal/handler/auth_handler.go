package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/queendahyun/internal/form"
	"github.com/hitoshi/queendahyun/internal/guard"
	"github.com/hitoshi/queendahyun/internal/identity"
	"github.com/hitoshi/queendahyun/internal/session"
	"github.com/hitoshi/queendahyun/internal/view"
)

// FormSubmitter はフォーム送信処理のインターフェース。
type FormSubmitter interface {
	Submit(ctx context.Context, store *session.Store, f *form.CredentialForm) form.Outcome
}

// IdentityExchanger はIdPクレデンシャル交換のインターフェース。
type IdentityExchanger interface {
	Exchange(ctx context.Context, store *session.Store, credential string, providerErr error) identity.Result
}

// CredentialSource はGoogle Identity Servicesのボタン設定とコールバックの読み取りを行う。
type CredentialSource interface {
	ClientID() string
	LoginURI() string
	ClientScriptURL() string
	CallbackCredential(r *http.Request) (string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	Genders   []string
	Countries []string
}

// AuthHandler はサインアップ・ログイン・Googleログイン・ログアウトのハンドラー。
type AuthHandler struct {
	forms    FormSubmitter
	bridge   IdentityExchanger
	google   CredentialSource
	renderer PageRenderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(forms FormSubmitter, bridge IdentityExchanger, google CredentialSource, renderer PageRenderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		forms:    forms,
		bridge:   bridge,
		google:   google,
		renderer: renderer,
		config:   config,
	}
}

// ShowSignup はサインアップフォームを表示する。
// GET /signup
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, form.New(form.ModeSignup))
}

// ShowLogin はログインフォームを表示する。
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, form.New(form.ModeLogin))
}

// SubmitSignup はサインアップフォームの送信を処理する。
// POST /signup
func (h *AuthHandler) SubmitSignup(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, form.ModeSignup)
}

// SubmitLogin はログインフォームの送信を処理する。
// POST /login
func (h *AuthHandler) SubmitLogin(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, form.ModeLogin)
}

func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, mode form.Mode) {
	store, ok := storeFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	f := form.FromValues(mode, r.PostForm)

	// モード切替は入力値を保持したまま再描画する
	if r.PostFormValue("intent") == "toggle" {
		f.ToggleMode()
		h.renderForm(w, r, http.StatusOK, f)
		return
	}

	nav := guard.Follow(store, guard.ViewAuthForm)
	defer nav.Stop()

	switch h.forms.Submit(r.Context(), store, f) {
	case form.OutcomeLoggedIn:
		if target, ok := nav.Redirect(); ok {
			redirect(w, r, target)
			return
		}
		h.renderForm(w, r, http.StatusOK, f)
	case form.OutcomeDiscarded:
		slog.Debug("client went away before the form response", slog.String("mode", string(mode)))
	case form.OutcomeInvalid:
		h.renderForm(w, r, http.StatusUnprocessableEntity, f)
	default:
		// OutcomeSignedUp はログインモードに切り替わったフォームを表示する
		h.renderForm(w, r, http.StatusOK, f)
	}
}

// GoogleCallback はGoogle Identity Servicesのリダイレクトモードのコールバックを処理する。
// POST /auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFor(w, r)
	if !ok {
		return
	}

	nav := guard.Follow(store, guard.ViewIdentityCallback)
	defer nav.Stop()

	credential, providerErr := h.google.CallbackCredential(r)
	result := h.bridge.Exchange(r.Context(), store, credential, providerErr)

	switch {
	case result.Discarded:
		slog.Debug("client went away before the identity exchange response")
	case result.Authenticated:
		if target, ok := nav.Redirect(); ok {
			redirect(w, r, target)
			return
		}
		redirect(w, r, guard.PathDashboard)
	default:
		f := form.New(form.ModeSignup)
		f.FormError = result.FormError
		h.renderForm(w, r, http.StatusOK, f)
	}
}

// Logout はセッションを破棄してランディングページへ遷移する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	store, ok := storeFor(w, r)
	if !ok {
		return
	}

	if err := store.Clear(r.Context()); err != nil {
		slog.Error("failed to clear session", slog.String("error", err.Error()))
		writeSessionUnavailable(w)
		return
	}

	redirect(w, r, guard.PathLanding)
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, f *form.CredentialForm) {
	h.renderer.Render(w, status, view.PageAuth, view.AuthPage{
		Base:      baseFor(r),
		Form:      f,
		Genders:   h.config.Genders,
		Countries: h.config.Countries,
		Google: view.GoogleButton{
			ClientID:  h.google.ClientID(),
			LoginURI:  h.google.LoginURI(),
			ScriptURL: h.google.ClientScriptURL(),
		},
	})
}
