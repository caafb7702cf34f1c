package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	errors "github.com/frahmantamala/equipment-inventory/internal"
)

// DateLayout is the day/month/year format operators type dates in.
const DateLayout = "02/01/2006"

var (
	tagPattern      = regexp.MustCompile(`^[A-Z0-9-]{4,}$`)
	serialPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	modelPattern    = regexp.MustCompile(`^[A-Za-z0-9\s\-_.,()]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,30}$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the inventory rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := registerRules(v); err != nil {
			panic("validation: registering rules: " + err.Error())
		}
		validate = v
	})
	return validate
}

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"asset_tag":       func(fl validator.FieldLevel) bool { return IsTag(fl.Field().String()) },
		"serial":          func(fl validator.FieldLevel) bool { return serialPattern.MatchString(fl.Field().String()) },
		"model_name":      func(fl validator.FieldLevel) bool { return modelPattern.MatchString(fl.Field().String()) },
		"full_name":       func(fl validator.FieldLevel) bool { return IsFullName(fl.Field().String()) },
		"password_policy": func(fl validator.FieldLevel) bool { return IsStrongPassword(fl.Field().String()) },
		"email_address":   func(fl validator.FieldLevel) bool { return emailPattern.MatchString(fl.Field().String()) },
		"username":        func(fl validator.FieldLevel) bool { return usernamePattern.MatchString(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	return nil
}

var ruleMessages = map[string]string{
	"required":        "%s is required",
	"asset_tag":       "%s must be at least 4 characters of letters, digits or '-'",
	"serial":          "%s must contain only letters and digits",
	"model_name":      "%s contains invalid characters",
	"full_name":       "%s must contain at least first and last name",
	"password_policy": "%s must be at least 8 characters and contain letters and digits",
	"email_address":   "%s is not a valid email address",
	"username":        "%s must be 3 to 30 lowercase letters, digits, '.', '_' or '-'",
	"oneof":           "%s has an unsupported value",
	"max":             "%s is too long",
	"min":             "%s is too short",
}

var ruleCodes = map[string]errors.ErrorCode{
	"asset_tag":       errors.ErrCodeInvalidTag,
	"full_name":       errors.ErrCodeInvalidName,
	"password_policy": errors.ErrCodeWeakPassword,
	"email_address":   errors.ErrCodeInvalidEmail,
}

// Struct runs the struct tags of s and converts failures to a validation AppError.
func Struct(s interface{}) *errors.AppError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewInternalError("validation failed unexpectedly", err)
	}

	details := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		format, ok := ruleMessages[fe.Tag()]
		if !ok {
			format = "%s is invalid"
		}
		code, ok := ruleCodes[fe.Tag()]
		if !ok {
			code = errors.ErrCodeValidationFailed
		}
		details = append(details, errors.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf(format, fe.Field()),
			Code:    string(code),
		})
	}

	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: details})
}

func IsTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

func IsEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsFullName(name string) bool {
	return len(strings.Fields(name)) >= 2
}

func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName collapses whitespace and title-cases each word.
func NormalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeObservation capitalizes free text and substitutes fallback when empty.
func NormalizeObservation(text, fallback string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, errors.NewValidationFieldError("date", fmt.Sprintf("%q is not a valid date (DD/MM/YYYY)", value), errors.ErrCodeInvalidDate)
	}
	return t, nil
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
