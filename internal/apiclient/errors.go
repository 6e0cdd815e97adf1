package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/queendahyun/internal/model"
)

// errorPayload は外部APIのエラー応答。
// detailは文字列またはフィールド詳細の配列、messageは文字列で返される。
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// fieldDetail はフィールド単位の検証エラー1件。
// locは ["body", "email"] のようにフィールドへのパスを表す。
type fieldDetail struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// normalizeError はエラー応答を型付きエラーに正規化する。
// 401はAuthRejectedError、それ以外はUpstreamErrorとなる。
func normalizeError(status int, body []byte) error {
	message, fields := parseErrorPayload(body)
	if message == "" {
		message = http.StatusText(status)
	}

	if status == http.StatusUnauthorized {
		return &model.AuthRejectedError{Message: message}
	}

	return &model.UpstreamError{
		StatusCode: status,
		Message:    message,
		Fields:     fields,
	}
}

// parseErrorPayload はボディからメッセージとフィールド詳細を取り出す。
// 解析できない場合は空のまま返す。
func parseErrorPayload(body []byte) (string, map[string]string) {
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", nil
	}

	message := strings.TrimSpace(p.Message)
	if len(p.Detail) == 0 {
		return message, nil
	}

	var detail string
	if err := json.Unmarshal(p.Detail, &detail); err == nil {
		if message == "" {
			message = strings.TrimSpace(detail)
		}
		return message, nil
	}

	var items []fieldDetail
	if err := json.Unmarshal(p.Detail, &items); err != nil {
		return message, nil
	}

	fields := make(map[string]string, len(items))
	for _, item := range items {
		name := fieldName(item.Loc)
		if name == "" || item.Msg == "" {
			continue
		}
		// 同一フィールドの複数エラーは最初の1件のみ表示する
		if _, exists := fields[name]; !exists {
			fields[name] = item.Msg
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	return message, fields
}

// fieldName はlocの末尾から文字列要素を探してフィールド名とする。
// "body" のようなリクエスト位置だけの場合は空文字列を返す。
func fieldName(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		s, ok := loc[i].(string)
		if !ok {
			continue
		}
		switch s {
		case "body", "query", "path", "header", "cookie":
			return ""
		}
		return s
	}
	return ""
}
