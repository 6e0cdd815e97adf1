// Package form はサインアップ・ログインフォームの状態、入力検証、送信処理を提供する。
package form

import (
	"net/url"
	"strings"

	"github.com/hitoshi/queendahyun/internal/apiclient"
)

// Mode はフォームのモード。
type Mode string

const (
	ModeSignup Mode = "signup"
	ModeLogin  Mode = "login"
)

// ParseMode は文字列からModeを返す。不明な値はModeSignupとして扱う。
func ParseMode(s string) Mode {
	if Mode(s) == ModeLogin {
		return ModeLogin
	}
	return ModeSignup
}

// Genders はgenderフィールドで選択できる値。validatorのoneofと一致させること。
var Genders = []string{"Male", "Female", "Other"}

// ユーザー向けメッセージ
const (
	NoticeSignedUp       = "Signup successful! You can now log in."
	MessageSignupFailed  = "Signup failed. Please check your information and try again."
	MessageLoginFailed   = "Login failed. Please check your credentials."
	MessageNetworkFailed = "Unable to reach the server. Please check your connection and try again."
)

// CredentialForm はフォームの入力値と表示状態。
// FieldErrors・FormError・Noticeは送信ごとにリセットされる。
type CredentialForm struct {
	Mode Mode

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Country     string `json:"country"`
	Email       string `json:"email"`
	Password    string `json:"password"`

	FieldErrors map[string]string
	FormError   string
	Notice      string
}

// New は指定モードの空のフォームを返す。
func New(mode Mode) *CredentialForm {
	return &CredentialForm{Mode: mode}
}

// FromValues はPOSTされたフォーム値からCredentialFormを組み立てる。
func FromValues(mode Mode, v url.Values) *CredentialForm {
	return &CredentialForm{
		Mode:        mode,
		FirstName:   v.Get("first_name"),
		LastName:    v.Get("last_name"),
		DateOfBirth: v.Get("date_of_birth"),
		Gender:      v.Get("gender"),
		Country:     v.Get("country"),
		Email:       v.Get("email"),
		Password:    v.Get("password"),
	}
}

// IsSignup はサインアップモードかどうかを返す。
func (f *CredentialForm) IsSignup() bool {
	return f.Mode != ModeLogin
}

// ToggleMode はサインアップとログインを切り替える。入力値は保持し、表示メッセージは消去する。
func (f *CredentialForm) ToggleMode() {
	if f.IsSignup() {
		f.Mode = ModeLogin
	} else {
		f.Mode = ModeSignup
	}
	f.resetMessages()
}

// HasErrors はフィールドエラーまたはフォームエラーがあるかを返す。
func (f *CredentialForm) HasErrors() bool {
	return len(f.FieldErrors) > 0 || f.FormError != ""
}

// FieldError はフィールドのエラーメッセージを返す。テンプレートから使用する。
func (f *CredentialForm) FieldError(name string) string {
	return f.FieldErrors[name]
}

func (f *CredentialForm) resetMessages() {
	f.FieldErrors = nil
	f.FormError = ""
	f.Notice = ""
}

func (f *CredentialForm) email() string {
	return strings.TrimSpace(f.Email)
}

func (f *CredentialForm) signupRequest() apiclient.SignupRequest {
	return apiclient.SignupRequest{
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		DateOfBirth: strings.TrimSpace(f.DateOfBirth),
		Gender:      f.Gender,
		Country:     f.Country,
		Email:       f.email(),
		Password:    f.Password,
	}
}
