package form

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/queendahyun/internal/model"
)

func validSignupForm() *CredentialForm {
	return &CredentialForm{
		Mode:        ModeSignup,
		FirstName:   "Dahyun",
		LastName:    "Kim",
		DateOfBirth: "1998-05-28",
		Gender:      "Female",
		Country:     "Japan",
		Email:       "a@b.com",
		Password:    "Abcdef1!",
	}
}

func fixedValidator(policy PasswordPolicy) *Validator {
	v := NewValidator(policy, 13)
	v.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	return v
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestValidator_ValidSignup(t *testing.T) {
	if err := fixedValidator(PolicyStrict).Validate(validSignupForm()); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidator_AgeBoundary(t *testing.T) {
	v := fixedValidator(PolicyStrict)

	tests := []struct {
		dob     string
		wantErr bool
	}{
		{"2013-10-16", false}, // ちょうど13歳の誕生日
		{"2013-10-17", true},  // 13歳の誕生日の前日
		{"2000-01-01", false},
		{"2030-01-01", true},
		{"2013/10/16", true},
		{"not-a-date", true},
	}

	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			f := validSignupForm()
			f.DateOfBirth = tt.dob

			err := v.Validate(f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(dob=%q) error = %v, wantErr %v", tt.dob, err, tt.wantErr)
			}
			if err != nil {
				if _, ok := fieldErrors(t, err)["date_of_birth"]; !ok {
					t.Errorf("expected date_of_birth field error, got %v", err)
				}
			}
		})
	}
}

func TestValidator_StrictPassword(t *testing.T) {
	v := fixedValidator(PolicyStrict)

	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Abcdef1!", false},
		{"Zz9{xxxxxx", false},
		{"abcdefgh", true},
		{"Ab1!", true},
		{"ABCDEFG1!", true},
		{"Abcdefg!", true},
		{"Abcdefg1", true},
		{"Abcdefg1-", true}, // '-' は記号に含まれない
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			f := &CredentialForm{Mode: ModeLogin, Email: "a@b.com", Password: tt.password}
			err := v.Validate(f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(password=%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidator_StrictPasswordMessage(t *testing.T) {
	f := &CredentialForm{Mode: ModeLogin, Email: "a@b.com", Password: "abcdefgh"}

	fields := fieldErrors(t, fixedValidator(PolicyStrict).Validate(f))

	if fields["password"] != strictPasswordMsg {
		t.Errorf("password message = %q", fields["password"])
	}
}

func TestValidator_RelaxedPassword(t *testing.T) {
	v := fixedValidator(PolicyRelaxed)

	f := &CredentialForm{Mode: ModeLogin, Email: "a@b.com", Password: "x"}
	if err := v.Validate(f); err != nil {
		t.Errorf("relaxed policy should accept non-empty password: %v", err)
	}

	f.Password = ""
	if err := v.Validate(f); err == nil {
		t.Error("relaxed policy should reject empty password")
	}
}

func TestValidator_UnknownPolicyFallsBackToStrict(t *testing.T) {
	v := NewValidator("lenient", 0)

	if v.Policy() != PolicyStrict {
		t.Errorf("Policy() = %q, want strict", v.Policy())
	}
	if v.MinAge() != DefaultMinAge {
		t.Errorf("MinAge() = %d, want %d", v.MinAge(), DefaultMinAge)
	}
}

func TestValidator_Email(t *testing.T) {
	v := fixedValidator(PolicyStrict)

	tests := []struct {
		email   string
		wantErr bool
	}{
		{"a@b.com", false},
		{"  a@b.com  ", false},
		{"user.name+tag@example.co.jp", false},
		{"a@b", true},
		{"ab.com", true},
		{"a b@c.com", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			f := &CredentialForm{Mode: ModeLogin, Email: tt.email, Password: "Abcdef1!"}
			err := v.Validate(f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(email=%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidator_SignupRequiredFields(t *testing.T) {
	f := &CredentialForm{Mode: ModeSignup, FirstName: "   "}

	fields := fieldErrors(t, fixedValidator(PolicyStrict).Validate(f))

	want := map[string]string{
		"first_name":    "First name is required",
		"last_name":     "Last name is required",
		"date_of_birth": "Date of birth is required",
		"gender":        "Gender is required",
		"country":       "Country is required",
		"email":         "Valid email is required",
		"password":      "Password is required",
	}
	for name, msg := range want {
		if fields[name] != msg {
			t.Errorf("fields[%q] = %q, want %q", name, fields[name], msg)
		}
	}
}

func TestValidator_SignupChoiceFields(t *testing.T) {
	f := validSignupForm()
	f.Gender = "Unknown"
	f.Country = "Atlantis"

	fields := fieldErrors(t, fixedValidator(PolicyStrict).Validate(f))

	if _, ok := fields["gender"]; !ok {
		t.Error("expected gender error")
	}
	if _, ok := fields["country"]; !ok {
		t.Error("expected country error")
	}
	if len(fields) != 2 {
		t.Errorf("unexpected extra errors: %v", fields)
	}
}

func TestValidator_LoginIgnoresSignupFields(t *testing.T) {
	f := &CredentialForm{Mode: ModeLogin, Email: "a@b.com", Password: "Abcdef1!"}

	if err := fixedValidator(PolicyStrict).Validate(f); err != nil {
		t.Errorf("login mode should not require signup fields: %v", err)
	}
}
