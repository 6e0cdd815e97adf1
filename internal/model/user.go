// Package model はドメインモデルを定義する。
package model

// UserProfile は外部APIから取得した認証済みユーザーの基本属性を表す。
// 読み取り専用のスナップショットで、ログアウト時に破棄される。
type UserProfile struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Country     string `json:"country"`
}

// DisplayName は画面表示用の氏名を返す。
func (p *UserProfile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.Email
	}
}
