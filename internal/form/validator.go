package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/queendahyun/internal/countries"
	"github.com/hitoshi/queendahyun/internal/model"
)

// PasswordPolicy はパスワードの検証ルール。
type PasswordPolicy string

const (
	// PolicyStrict は8文字以上で大文字・小文字・数字・記号を各1文字以上含むことを要求する。
	PolicyStrict PasswordPolicy = "strict"
	// PolicyRelaxed は空でないことのみを要求する。
	PolicyRelaxed PasswordPolicy = "relaxed"
)

// DefaultMinAge はサインアップ可能な最低年齢。
const DefaultMinAge = 13

const (
	dateLayout        = "2006-01-02"
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
	passwordMinLen    = 8
	strictPasswordMsg = "Password must be at least 8 characters long and contain uppercase, lowercase, number, and special character"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type loginInput struct {
	Email    string `json:"email" validate:"required,emailshape"`
	Password string `json:"password" validate:"required,password"`
}

type signupInput struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02,minage"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female Other"`
	Country     string `json:"country" validate:"required,country"`
	Email       string `json:"email" validate:"required,emailshape"`
	Password    string `json:"password" validate:"required,password"`
}

// Validator はフォーム入力を検証する。
type Validator struct {
	validate *validator.Validate
	policy   PasswordPolicy
	minAge   int
	now      func() time.Time
}

// NewValidator はValidatorを生成する。minAgeが0以下の場合はDefaultMinAgeを使用する。
func NewValidator(policy PasswordPolicy, minAge int) *Validator {
	if policy != PolicyRelaxed {
		policy = PolicyStrict
	}
	if minAge <= 0 {
		minAge = DefaultMinAge
	}

	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		policy:   policy,
		minAge:   minAge,
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 登録失敗はタグ名の誤りのみで発生するため、起動時に検出できるようpanicする
	mustRegister(v.validate, "emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v.validate, "password", func(fl validator.FieldLevel) bool {
		return v.passwordOK(fl.Field().String())
	})
	mustRegister(v.validate, "minage", func(fl validator.FieldLevel) bool {
		return v.oldEnough(fl.Field().String())
	})
	mustRegister(v.validate, "country", func(fl validator.FieldLevel) bool {
		return countries.Contains(fl.Field().String())
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation %q: %v", tag, err))
	}
}

// Policy は適用中のパスワードポリシーを返す。
func (v *Validator) Policy() PasswordPolicy {
	return v.policy
}

// MinAge はサインアップ可能な最低年齢を返す。
func (v *Validator) MinAge() int {
	return v.minAge
}

// Validate はフォームのモードに応じた検証を行う。
// 不正な場合は*model.ValidationErrorを返す。
func (v *Validator) Validate(f *CredentialForm) error {
	var input any
	if f.IsSignup() {
		input = signupInput{
			FirstName:   strings.TrimSpace(f.FirstName),
			LastName:    strings.TrimSpace(f.LastName),
			DateOfBirth: strings.TrimSpace(f.DateOfBirth),
			Gender:      f.Gender,
			Country:     f.Country,
			Email:       f.email(),
			Password:    f.Password,
		}
	} else {
		input = loginInput{
			Email:    f.email(),
			Password: f.Password,
		}
	}

	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = v.messageFor(fe)
	}
	return &model.ValidationError{Fields: fields}
}

func (v *Validator) messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "first_name":
		return "First name is required"
	case "last_name":
		return "Last name is required"
	case "date_of_birth":
		switch fe.Tag() {
		case "required":
			return "Date of birth is required"
		case "minage":
			return fmt.Sprintf("You must be at least %d years old to sign up", v.minAge)
		default:
			return "Date of birth must be a valid date (YYYY-MM-DD)"
		}
	case "gender":
		if fe.Tag() == "required" {
			return "Gender is required"
		}
		return "Please select a valid gender"
	case "country":
		if fe.Tag() == "required" {
			return "Country is required"
		}
		return "Please select a valid country"
	case "email":
		return "Valid email is required"
	case "password":
		if fe.Tag() == "required" {
			return "Password is required"
		}
		return strictPasswordMsg
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func (v *Validator) passwordOK(pw string) bool {
	if v.policy == PolicyRelaxed {
		return pw != ""
	}
	if len([]rune(pw)) < passwordMinLen {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// oldEnough は誕生日を基準に満年齢がminAge以上かを判定する。
func (v *Validator) oldEnough(dob string) bool {
	birth, err := time.Parse(dateLayout, dob)
	if err != nil {
		return false
	}
	now := v.now()

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age >= v.minAge
}
