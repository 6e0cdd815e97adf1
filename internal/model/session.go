package model

// SessionState はブラウザの認証状態を表す。
type SessionState string

const (
	// StateUnauthenticated は未ログイン状態。
	StateUnauthenticated SessionState = "unauthenticated"
	// StateAuthenticated はトークンを保持したログイン状態。
	StateAuthenticated SessionState = "authenticated"
)

// Session はブラウザが「ログインしているか」と、外部APIに提示する資格情報を表す。
// IsAuthenticated はTokenが空でない場合に限りtrueとなる。
type Session struct {
	Token           string
	IsAuthenticated bool
}

// StateOf はトークンから認証状態を導出する。
func StateOf(token string) SessionState {
	if token == "" {
		return StateUnauthenticated
	}
	return StateAuthenticated
}
