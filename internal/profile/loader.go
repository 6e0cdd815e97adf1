// Package profile は保護されたユーザー情報を取得し、トークンが拒否された場合はセッションを破棄する。
package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/queendahyun/internal/apiclient"
	"github.com/hitoshi/queendahyun/internal/guard"
	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/session"
)

// ユーザー向けメッセージ
const (
	MessageLoadFailed    = "Failed to load your profile. Please try again later."
	MessageRefreshFailed = "Failed to refresh your session. Please try again later."
	MessageNetworkFailed = "Unable to reach the server. Please check your connection and try again."
)

// API はプロフィール取得で使用する外部APIの操作。
type API interface {
	FetchProfile(ctx context.Context, token string) (*model.UserProfile, error)
	RefreshToken(ctx context.Context, token string) (*apiclient.TokenResponse, error)
}

// CascadeRecorder はトークン拒否によるセッション破棄を記録する。
type CascadeRecorder interface {
	RecordSessionCascade(op string)
}

// Outcome は取得結果。
// Profileが非nilなら描画、RedirectToが空でなければリダイレクト、それ以外はErrorMessageを表示する。
// Discardedはリクエストが既に終了しており、応答を反映しなかったことを表す。
type Outcome struct {
	Profile      *model.UserProfile
	ErrorMessage string
	RedirectTo   string
	Discarded    bool
}

// Loader はプロフィールの取得を行う。
type Loader struct {
	api      API
	logger   *slog.Logger
	recorder CascadeRecorder
}

// NewLoader はLoaderを生成する。
func NewLoader(api API, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{api: api, logger: logger}
}

// WithRecorder はセッション破棄の記録先を設定する。
func (l *Loader) WithRecorder(r CascadeRecorder) *Loader {
	l.recorder = r
	return l
}

// Load はストアのトークンでユーザー情報を取得する。
// トークンがない場合はmodel.ErrMissingCredentialを返し、APIを呼び出さない。
// トークンが拒否された場合、そのトークンがまだ現在のものであればセッションを破棄し、
// フォーム画面へのリダイレクトを返す。その他の失敗ではセッションを維持する。
func (l *Loader) Load(ctx context.Context, store *session.Store) (*Outcome, error) {
	token := store.Token()
	if token == "" {
		return nil, model.ErrMissingCredential
	}

	nav := guard.Follow(store, guard.ViewDashboard)
	defer nav.Stop()

	p, err := l.api.FetchProfile(ctx, token)
	// リクエストが既に終わっていれば、拒否応答でもセッションに触れない
	if ctx.Err() != nil {
		return &Outcome{Discarded: true}, nil
	}
	if err != nil {
		return l.handleFailure(ctx, store, nav, token, apiclient.OpFetchProfile, err, MessageLoadFailed)
	}

	return &Outcome{Profile: p}, nil
}

// Refresh は現在のトークンを新しいトークンに差し替える。
// 失敗時の扱いはLoadと同じ。
func (l *Loader) Refresh(ctx context.Context, store *session.Store) (*Outcome, error) {
	token := store.Token()
	if token == "" {
		return nil, model.ErrMissingCredential
	}

	nav := guard.Follow(store, guard.ViewDashboard)
	defer nav.Stop()

	resp, err := l.api.RefreshToken(ctx, token)
	if ctx.Err() != nil {
		return &Outcome{Discarded: true}, nil
	}
	if err != nil {
		return l.handleFailure(ctx, store, nav, token, apiclient.OpRefreshToken, err, MessageRefreshFailed)
	}

	// 取得中に別のリクエストでログアウト・再ログインされていれば上書きしない
	if store.Token() != token {
		return &Outcome{}, nil
	}
	if err := store.SetToken(ctx, resp.AccessToken); err != nil {
		return nil, err
	}
	return &Outcome{}, nil
}

func (l *Loader) handleFailure(ctx context.Context, store *session.Store, nav *guard.Navigation, token, op string, err error, fallback string) (*Outcome, error) {
	var rejected *model.AuthRejectedError
	if !errors.As(err, &rejected) {
		l.logger.Warn("プロフィール関連の取得に失敗しました",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return &Outcome{ErrorMessage: failureMessage(err, fallback)}, nil
	}

	// 同一リクエスト内で新しいトークンが設定されていればクリアしない
	cleared, clearErr := store.ClearIfCurrent(ctx, token)
	if clearErr != nil {
		return nil, clearErr
	}
	if l.recorder != nil {
		l.recorder.RecordSessionCascade(op)
	}
	l.logger.Info("トークンが拒否されたためセッションを破棄しました",
		slog.String("op", op),
		slog.Bool("deleted", cleared),
	)

	if _, redirect := nav.Redirect(); redirect {
		return &Outcome{RedirectTo: guard.PathAuthForm}, nil
	}
	// ストアは別トークンで認証済みのまま。表示だけ失敗させる
	return &Outcome{ErrorMessage: fallback}, nil
}

func failureMessage(err error, fallback string) string {
	var (
		networkErr *model.NetworkError
		upstream   *model.UpstreamError
	)
	switch {
	case errors.As(err, &networkErr):
		return MessageNetworkFailed
	case errors.As(err, &upstream) && upstream.Message != "":
		return upstream.Message
	default:
		return fallback
	}
}
