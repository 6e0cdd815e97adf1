package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// JSONで応答するエンドポイント（/health など）で使用する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited    = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFValidation = "CSRF_VALIDATION_FAILED"
)

// NewUnavailableError は依存先が利用できない場合のエラーを生成する。
func NewUnavailableError(dependency string) *APIError {
	return &APIError{
		Code:     ErrCodeUnavailable,
		Message:  fmt.Sprintf("dependency unavailable: %s", dependency),
		Category: "system",
		Action:   "Please try again later.",
	}
}

var (
	// ErrInvalidToken は空白のみ、または空のトークンを設定しようとした場合のエラー。
	ErrInvalidToken = errors.New("invalid token: token must not be blank")

	// ErrMissingCredential は保護されたリソースの取得時にトークンが存在しない場合のエラー。
	ErrMissingCredential = errors.New("missing credential: session has no token")
)

// ValidationError はフィールド単位の入力検証エラー。
// ネットワークに到達する前に検出され、フォーム内で完結する。
type ValidationError struct {
	Fields map[string]string // フィールド名 -> メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// AuthRejectedError は外部APIが認証情報またはトークンを拒否した（401系）ことを表す。
type AuthRejectedError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *AuthRejectedError) Error() string {
	if e.Message == "" {
		return "authentication rejected"
	}
	return "authentication rejected: " + e.Message
}

// NetworkError は通信失敗またはタイムアウトを表す。自動リトライは行わない。
type NetworkError struct {
	Op  string
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *NetworkError) Unwrap() error { return e.Err }

// UnexpectedResponseError は成功ステータスだが期待したフィールドが欠けている応答を表す。
type UnexpectedResponseError struct {
	Op     string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %s", e.Op, e.Reason)
}

// UpstreamError は外部APIが返したエラー応答を正規化したもの。
// フィールド単位の詳細がある場合はFieldsに格納される。
type UpstreamError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound はエラーが外部APIの404応答かどうかを判定する。
func IsNotFound(err error) bool {
	var up *UpstreamError
	return errors.As(err, &up) && up.StatusCode == 404
}
