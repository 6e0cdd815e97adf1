package form

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/hitoshi/queendahyun/internal/apiclient"
	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// Outcome は送信処理の結果。
type Outcome string

const (
	// OutcomeInvalid は入力検証で失敗し、APIを呼び出さなかったことを表す。
	OutcomeInvalid Outcome = "invalid"
	// OutcomeFailed はAPI呼び出しが失敗したことを表す。
	OutcomeFailed Outcome = "failed"
	// OutcomeSignedUp はサインアップが成功し、ログインモードに切り替えたことを表す。
	OutcomeSignedUp Outcome = "signed_up"
	// OutcomeLoggedIn はログインが成功し、トークンを保存したことを表す。
	OutcomeLoggedIn Outcome = "logged_in"
	// OutcomeDiscarded はリクエストが既に終了しており、応答を破棄したことを表す。
	OutcomeDiscarded Outcome = "discarded"
)

// AuthAPI はフォーム送信で使用する外部APIの操作。
type AuthAPI interface {
	Signup(ctx context.Context, in apiclient.SignupRequest) (*apiclient.SignupResponse, error)
	Login(ctx context.Context, email, password string) (*apiclient.TokenResponse, error)
}

// AttemptRecorder は認証試行の結果を記録する。
type AttemptRecorder interface {
	RecordAuthAttempt(kind, outcome string)
}

// Controller はフォームの送信処理を行う。
type Controller struct {
	api       AuthAPI
	validator *Validator
	logger    *slog.Logger
	recorder  AttemptRecorder
}

// NewController はControllerを生成する。
func NewController(api AuthAPI, v *Validator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{api: api, validator: v, logger: logger}
}

// WithRecorder は認証試行の記録先を設定する。
func (c *Controller) WithRecorder(r AttemptRecorder) *Controller {
	c.recorder = r
	return c
}

// Validator は入力検証に使用するValidatorを返す。
func (c *Controller) Validator() *Validator {
	return c.validator
}

// Submit はフォームを検証し、モードに応じて外部APIを1回だけ呼び出す。
// 結果はフォームの表示状態に反映され、エラーを呼び出し側に伝播しない。
func (c *Controller) Submit(ctx context.Context, store *session.Store, f *CredentialForm) Outcome {
	f.resetMessages()

	if err := c.validator.Validate(f); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			f.FieldErrors = verr.Fields
		} else {
			c.logger.Error("入力検証に失敗しました", slog.String("error", err.Error()))
			f.FormError = failedMessage(f.Mode)
		}
		return c.record(f.Mode, OutcomeInvalid)
	}

	if f.IsSignup() {
		return c.record(ModeSignup, c.signup(ctx, f))
	}
	return c.record(ModeLogin, c.login(ctx, store, f))
}

func (c *Controller) signup(ctx context.Context, f *CredentialForm) Outcome {
	_, err := c.api.Signup(ctx, f.signupRequest())
	if ctx.Err() != nil {
		return OutcomeDiscarded
	}
	if err != nil {
		c.logger.Info("サインアップに失敗しました", slog.String("error", err.Error()))
		c.applyError(f, err)
		return OutcomeFailed
	}

	f.Mode = ModeLogin
	f.Password = ""
	f.Notice = NoticeSignedUp
	return OutcomeSignedUp
}

func (c *Controller) login(ctx context.Context, store *session.Store, f *CredentialForm) Outcome {
	resp, err := c.api.Login(ctx, f.email(), f.Password)
	if ctx.Err() != nil {
		return OutcomeDiscarded
	}
	if err != nil {
		c.logger.Info("ログインに失敗しました", slog.String("error", err.Error()))
		c.applyError(f, err)
		return OutcomeFailed
	}

	if err := store.SetToken(ctx, resp.AccessToken); err != nil {
		c.logger.Error("トークンの保存に失敗しました", slog.String("error", err.Error()))
		f.FormError = MessageLoginFailed
		return OutcomeFailed
	}

	f.Password = ""
	return OutcomeLoggedIn
}

// applyError はAPIエラーをフォームの表示状態に変換する。
// フィールド単位の詳細があればFieldErrorsに、なければFormErrorに設定する。
func (c *Controller) applyError(f *CredentialForm, err error) {
	var (
		upstream   *model.UpstreamError
		rejected   *model.AuthRejectedError
		networkErr *model.NetworkError
	)

	switch {
	case errors.As(err, &upstream) && len(upstream.Fields) > 0:
		f.FieldErrors = formFields(upstream.Fields)
	case errors.As(err, &upstream) && upstream.Message != "":
		f.FormError = upstream.Message
	case errors.As(err, &rejected) && rejected.Message != "":
		f.FormError = rejected.Message
	case errors.As(err, &networkErr):
		f.FormError = MessageNetworkFailed
	default:
		f.FormError = failedMessage(f.Mode)
	}
}

// formFields はAPIのフィールド名をフォームのフィールド名に合わせる。
// ログインAPIはメールアドレスをusernameとして受け取る。
func formFields(in map[string]string) map[string]string {
	out := maps.Clone(in)
	if msg, ok := out["username"]; ok {
		delete(out, "username")
		out["email"] = msg
	}
	return out
}

func failedMessage(mode Mode) string {
	if mode == ModeLogin {
		return MessageLoginFailed
	}
	return MessageSignupFailed
}

func (c *Controller) record(mode Mode, outcome Outcome) Outcome {
	if c.recorder != nil {
		c.recorder.RecordAuthAttempt(string(mode), string(outcome))
	}
	return outcome
}
