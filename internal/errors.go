package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation           ErrorType = "VALIDATION_ERROR"
	ErrorTypeIntegrity            ErrorType = "INTEGRITY_ERROR"
	ErrorTypeInvalidTransition    ErrorType = "INVALID_TRANSITION"
	ErrorTypePermissionDenied     ErrorType = "PERMISSION_DENIED"
	ErrorTypeConfirmationMismatch ErrorType = "CONFIRMATION_MISMATCH"
	ErrorTypeHasHistory           ErrorType = "HAS_HISTORY"
	ErrorTypeInUse                ErrorType = "IN_USE"
	ErrorTypeNotFound             ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized         ErrorType = "UNAUTHORIZED"
	ErrorTypeInternal             ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTag       ErrorCode = "INVALID_TAG"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidName      ErrorCode = "INVALID_NAME"
	ErrCodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	ErrCodeDomainNotAllowed ErrorCode = "EMAIL_DOMAIN_NOT_ALLOWED"
	ErrCodeCatalogInactive  ErrorCode = "CATALOG_VALUE_INACTIVE"
	ErrCodeRenewalStockUsed ErrorCode = "RENEWAL_STOCK_NOT_NEW"

	ErrCodeDuplicateTag      ErrorCode = "DUPLICATE_TAG"
	ErrCodeDuplicateSerial   ErrorCode = "DUPLICATE_SERIAL"
	ErrCodeDuplicateUsername ErrorCode = "DUPLICATE_USERNAME"
	ErrCodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateCatalog  ErrorCode = "DUPLICATE_CATALOG_VALUE"
	ErrCodeTagRetired        ErrorCode = "TAG_RETIRED"

	ErrCodeInvalidTransition    ErrorCode = "INVALID_TRANSITION"
	ErrCodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	ErrCodeNoSession            ErrorCode = "NO_SESSION"
	ErrCodeConfirmationMismatch ErrorCode = "CONFIRMATION_MISMATCH"
	ErrCodeConfirmationCancel   ErrorCode = "CONFIRMATION_CANCELLED"
	ErrCodeHasHistory           ErrorCode = "HAS_HISTORY"
	ErrCodeInUse                ErrorCode = "CATALOG_VALUE_IN_USE"

	ErrCodeEquipmentNotFound ErrorCode = "EQUIPMENT_NOT_FOUND"
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound      ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeCatalogNotFound   ErrorCode = "CATALOG_VALUE_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodePasswordChange     ErrorCode = "PASSWORD_CHANGE_REQUIRED"
)

// AppError is returned by every service operation. ExitCode is what the CLI
// terminates with when the error reaches the top of a command.
type AppError struct {
	Type     ErrorType   `json:"type"`
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	ExitCode int         `json:"-"`
	Cause    error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel values work with errors.Is even
// when the returned error carries extra details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeValidation,
		Code:     code,
		Message:  message,
		ExitCode: 2,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeValidation,
		Code:     code,
		Message:  "Validation failed",
		ExitCode: 2,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewIntegrityError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeIntegrity,
		Code:     code,
		Message:  message,
		ExitCode: 3,
	}
}

func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Type:     ErrorTypeInvalidTransition,
		Code:     ErrCodeInvalidTransition,
		Message:  message,
		ExitCode: 4,
	}
}

func NewPermissionDeniedError(role, capability string) *AppError {
	return &AppError{
		Type:     ErrorTypePermissionDenied,
		Code:     ErrCodePermissionDenied,
		Message:  fmt.Sprintf("role %q is not allowed to %s", role, capability),
		ExitCode: 5,
		Details:  map[string]string{"role": role, "capability": capability},
	}
}

func NewConfirmationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeConfirmationMismatch,
		Code:     code,
		Message:  message,
		ExitCode: 6,
	}
}

func NewHasHistoryError(message string) *AppError {
	return &AppError{
		Type:     ErrorTypeHasHistory,
		Code:     ErrCodeHasHistory,
		Message:  message,
		ExitCode: 7,
	}
}

func NewInUseError(message string) *AppError {
	return &AppError{
		Type:     ErrorTypeInUse,
		Code:     ErrCodeInUse,
		Message:  message,
		ExitCode: 7,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeNotFound,
		Code:     code,
		Message:  message,
		ExitCode: 8,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:     ErrorTypeUnauthorized,
		Code:     code,
		Message:  message,
		ExitCode: 9,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:     ErrorTypeInternal,
		Code:     "INTERNAL_ERROR",
		Message:  message,
		ExitCode: 1,
		Cause:    cause,
	}
}

var (
	ErrEquipmentNotFound = NewNotFoundError("equipment not found", ErrCodeEquipmentNotFound)
	ErrUserNotFound      = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrRoleNotFound      = NewNotFoundError("role not found", ErrCodeRoleNotFound)
	ErrCatalogNotFound   = NewNotFoundError("catalog value not found", ErrCodeCatalogNotFound)

	// ErrRenewalStockUsed is a warning: --override with a justification clears it.
	ErrRenewalStockUsed = NewValidationError("replacement is not new stock", ErrCodeRenewalStockUsed)

	ErrInvalidTransition     = NewInvalidTransitionError("transition not allowed from current status")
	ErrHasHistory            = NewHasHistoryError("equipment has movement history and cannot be deleted")
	ErrInUse                 = NewInUseError("catalog value is referenced by active equipment")
	ErrConfirmationMismatch  = NewConfirmationError("confirmation did not match", ErrCodeConfirmationMismatch)
	ErrConfirmationCancelled = NewConfirmationError("operation cancelled", ErrCodeConfirmationCancel)
	ErrNoSession             = &AppError{Type: ErrorTypePermissionDenied, Code: ErrCodeNoSession, Message: "no active session, run login first", ExitCode: 5}

	ErrInvalidCredentials = NewUnauthorizedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewUnauthorizedError("user account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("invalid session token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("session has expired, run login again", ErrCodeTokenExpired)
	ErrPasswordChange     = NewUnauthorizedError("password change required, run passwd first", ErrCodePasswordChange)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

// ExitCode maps any error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := IsAppError(err); ok && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return 1
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
