// Package guard は認証状態とリクエストされた画面から、描画するかリダイレクトするかを決定する。
//
// 決定は毎回の描画時と、セッションストアの状態遷移イベントごとに同期的に評価される。
package guard

import (
	"github.com/hitoshi/queendahyun/internal/model"
)

// View はトップレベルの画面種別。
type View string

const (
	// ViewDashboard はルート（/）およびログイン後のダッシュボード。
	ViewDashboard View = "dashboard"
	// ViewAuthForm はサインアップ・ログインフォーム。
	ViewAuthForm View = "auth_form"
	// ViewPublic はランディング・ブログ・About・製品紹介などの公開画面。
	ViewPublic View = "public"
	// ViewIdentityCallback は外部IdPのクレデンシャル交換ハンドラー。
	ViewIdentityCallback View = "identity_callback"
	// ViewSignInSuccess はログイン完了後の案内画面。
	ViewSignInSuccess View = "signin_success"
	// ViewUnknown は未定義のパス。
	ViewUnknown View = "unknown"
)

// リダイレクト先のパス
const (
	PathLanding   = "/home"
	PathDashboard = "/"
	PathAuthForm  = "/signup"
	PathLogin     = "/login"
)

// Decision はガードの判定結果。
type Decision struct {
	Render     bool
	RedirectTo string
}

// render は描画を表すDecision。
var render = Decision{Render: true}

func redirect(path string) Decision {
	return Decision{RedirectTo: path}
}

// Decide は画面と認証状態からDecisionを返す。
//
//	| 画面                   | 未認証            | 認証済み          |
//	|------------------------|-------------------|-------------------|
//	| ダッシュボード         | /home へ          | 描画              |
//	| サインアップ/ログイン  | 描画              | / へ              |
//	| 公開画面               | 描画              | 描画              |
//	| IdPコールバック        | 描画（交換処理）  | / へ              |
//	| ログイン完了           | /home へ          | 描画              |
//	| 未定義                 | /home へ          | /home へ          |
func Decide(view View, state model.SessionState) Decision {
	authenticated := state == model.StateAuthenticated

	switch view {
	case ViewDashboard, ViewSignInSuccess:
		if authenticated {
			return render
		}
		return redirect(PathLanding)
	case ViewAuthForm, ViewIdentityCallback:
		if authenticated {
			return redirect(PathDashboard)
		}
		return render
	case ViewPublic:
		return render
	default:
		return redirect(PathLanding)
	}
}
