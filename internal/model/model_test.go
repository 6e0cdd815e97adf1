package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateOf(t *testing.T) {
	if got := StateOf(""); got != StateUnauthenticated {
		t.Errorf("StateOf(\"\") = %q, want %q", got, StateUnauthenticated)
	}
	if got := StateOf("tok"); got != StateAuthenticated {
		t.Errorf("StateOf(\"tok\") = %q, want %q", got, StateAuthenticated)
	}
}

func TestUserProfile_DisplayName(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		want    string
	}{
		{"氏名あり", UserProfile{FirstName: "Dahyun", LastName: "Kim", Email: "d@example.com"}, "Dahyun Kim"},
		{"名のみ", UserProfile{FirstName: "Dahyun", Email: "d@example.com"}, "Dahyun"},
		{"氏名なし", UserProfile{Email: "d@example.com"}, "d@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want BlockList
	}{
		{
			name: "配列",
			in:   `[{"type":"text","content":"<p>hi</p>"},{"type":"image","content":"/media/a.png"}]`,
			want: BlockList{{Type: BlockText, Content: "<p>hi</p>"}, {Type: BlockImage, Content: "/media/a.png"}},
		},
		{
			name: "文字列はtextブロック",
			in:   `"<p>plain</p>"`,
			want: BlockList{{Type: BlockText, Content: "<p>plain</p>"}},
		},
		{
			name: "null",
			in:   `null`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got BlockList
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BlockList mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBlockList_UnmarshalJSON_RejectsObject(t *testing.T) {
	var got BlockList
	if err := json.Unmarshal([]byte(`{"type":"text"}`), &got); err == nil {
		t.Error("expected error for object content")
	}
}

func TestBlockList_FirstText(t *testing.T) {
	blocks := BlockList{
		{Type: BlockImage, Content: "/a.png"},
		{Type: BlockText, Content: "first"},
		{Type: BlockText, Content: "second"},
	}
	got, ok := blocks.FirstText()
	if !ok || got.Content != "first" {
		t.Errorf("FirstText() = (%+v, %v), want first text block", got, ok)
	}

	if _, ok := (BlockList{{Type: BlockVideo}}).FirstText(); ok {
		t.Error("FirstText() should report false when no text block exists")
	}
}

func TestNewUnavailableError(t *testing.T) {
	err := NewUnavailableError("session storage")
	if err.Code != ErrCodeUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUnavailable)
	}
	if err.Error() != "[SERVICE_UNAVAILABLE] dependency unavailable: session storage" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidationError_ListsFieldsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"password": "x", "email": "y"}}
	if got := err.Error(); got != "validation failed: email, password" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := fmt.Errorf("wrap: %w", &NetworkError{Op: "login", Err: base})
	if !errors.Is(err, base) {
		t.Error("NetworkError should unwrap to the underlying error")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("get: %w", &UpstreamError{StatusCode: 404})) {
		t.Error("404 UpstreamError should be not found")
	}
	if IsNotFound(&UpstreamError{StatusCode: 500}) {
		t.Error("500 UpstreamError should not be not found")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("plain error should not be not found")
	}
}

func TestAuthRejectedError_Message(t *testing.T) {
	if got := (&AuthRejectedError{}).Error(); got != "authentication rejected" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&AuthRejectedError{Message: "Incorrect password"}).Error(); got != "authentication rejected: Incorrect password" {
		t.Errorf("Error() = %q", got)
	}
}
