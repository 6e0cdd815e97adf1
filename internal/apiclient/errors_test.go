package apiclient

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/queendahyun/internal/model"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantFields map[string]string
	}{
		{
			name:    "detailが文字列",
			status:  http.StatusBadRequest,
			body:    `{"detail":"Email already registered"}`,
			wantMsg: "Email already registered",
		},
		{
			name:    "messageが文字列",
			status:  http.StatusInternalServerError,
			body:    `{"message":"An error occurred"}`,
			wantMsg: "An error occurred",
		},
		{
			name:    "detailがフィールド詳細の配列",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"},{"loc":["body","gender"],"msg":"field required","type":"value_error.missing"}]}`,
			wantMsg: "Unprocessable Entity",
			wantFields: map[string]string{
				"email":  "value is not a valid email address",
				"gender": "field required",
			},
		},
		{
			name:    "locの末尾が配列インデックス",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body","country",0],"msg":"invalid","type":"value_error"}]}`,
			wantMsg: "Unprocessable Entity",
			wantFields: map[string]string{
				"country": "invalid",
			},
		},
		{
			name:    "locがリクエスト位置のみ",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body"],"msg":"invalid body","type":"value_error"}]}`,
			wantMsg: "Unprocessable Entity",
		},
		{
			name:    "JSONでないボディ",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantMsg: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalizeError(tt.status, []byte(tt.body))

			var up *model.UpstreamError
			if !errors.As(err, &up) {
				t.Fatalf("err = %T, want *model.UpstreamError", err)
			}
			if up.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", up.StatusCode, tt.status)
			}
			if up.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", up.Message, tt.wantMsg)
			}
			if diff := cmp.Diff(tt.wantFields, up.Fields); diff != "" {
				t.Errorf("Fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeError_Unauthorized(t *testing.T) {
	err := normalizeError(http.StatusUnauthorized, []byte(`{"detail":"Could not validate credentials"}`))

	var rejected *model.AuthRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %T, want *model.AuthRejectedError", err)
	}
	if rejected.Message != "Could not validate credentials" {
		t.Errorf("Message = %q", rejected.Message)
	}
}
