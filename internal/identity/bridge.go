// Package identity は外部IdP（Google Identity Services）のクレデンシャルを
// 本システムのトークンに交換する。
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/hitoshi/queendahyun/internal/apiclient"
	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// ユーザー向けメッセージ
const (
	MessageProviderFailed = "Google sign-in was cancelled or failed. Please try again."
	MessageExchangeFailed = "Google login failed. Please try again."
	MessageNetworkFailed  = "Unable to reach the server. Please check your connection and try again."
)

// ErrProvider はIdP側で認証が完了しなかったことを表す。
var ErrProvider = errors.New("identity provider did not return a credential")

// TokenExchanger はクレデンシャル交換を行う外部APIの操作。
type TokenExchanger interface {
	GoogleLogin(ctx context.Context, credential string) (*apiclient.TokenResponse, error)
}

// AttemptRecorder は認証試行の結果を記録する。
type AttemptRecorder interface {
	RecordAuthAttempt(kind, outcome string)
}

// Result は交換処理の結果。
type Result struct {
	Authenticated bool
	Discarded     bool
	FormError     string
}

// Bridge はIdPクレデンシャルの交換を行う。
type Bridge struct {
	api      TokenExchanger
	logger   *slog.Logger
	recorder AttemptRecorder
}

// NewBridge はBridgeを生成する。
func NewBridge(api TokenExchanger, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{api: api, logger: logger}
}

// WithRecorder は認証試行の記録先を設定する。
func (b *Bridge) WithRecorder(r AttemptRecorder) *Bridge {
	b.recorder = r
	return b
}

// Exchange はクレデンシャルを外部APIに送信し、得られたトークンをストアに設定する。
// providerErrが非nil、またはクレデンシャルが空の場合はAPIを呼び出さない。
// 失敗時はセッションを変更しない。
func (b *Bridge) Exchange(ctx context.Context, store *session.Store, credential string, providerErr error) Result {
	if providerErr != nil || strings.TrimSpace(credential) == "" {
		if providerErr == nil {
			providerErr = ErrProvider
		}
		b.logger.Info("IdPからクレデンシャルを取得できませんでした", slog.String("error", providerErr.Error()))
		return b.record(Result{FormError: MessageProviderFailed}, "provider_error")
	}

	resp, err := b.api.GoogleLogin(ctx, credential)
	if ctx.Err() != nil {
		return b.record(Result{Discarded: true}, "discarded")
	}
	if err != nil {
		b.logger.Info("クレデンシャルの交換に失敗しました", slog.String("error", err.Error()))
		return b.record(Result{FormError: exchangeMessage(err)}, "failed")
	}

	if err := store.SetToken(ctx, resp.AccessToken); err != nil {
		b.logger.Error("トークンの保存に失敗しました", slog.String("error", err.Error()))
		return b.record(Result{FormError: MessageExchangeFailed}, "failed")
	}

	return b.record(Result{Authenticated: true}, "logged_in")
}

func exchangeMessage(err error) string {
	var (
		rejected   *model.AuthRejectedError
		upstream   *model.UpstreamError
		networkErr *model.NetworkError
	)
	switch {
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.As(err, &upstream) && upstream.Message != "":
		return upstream.Message
	case errors.As(err, &networkErr):
		return MessageNetworkFailed
	default:
		return MessageExchangeFailed
	}
}

func (b *Bridge) record(r Result, outcome string) Result {
	if b.recorder != nil {
		b.recorder.RecordAuthAttempt("google", outcome)
	}
	return r
}
