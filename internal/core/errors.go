// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidID    = errors.New("invalid id")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrDelivery     = errors.New("delivery failed")
)

// AppError is an operational error: anticipated, raised on purpose and safe
// to show to clients as-is.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status is "fail" for client errors and "error" for server errors.
func (e *AppError) Status() string {
	if e.StatusCode >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "BAD_REQUEST")
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "You need to be logged in to access this resource"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, "NOT_FOUND")
}

func DuplicateError(field, value string) *AppError {
	message := fmt.Sprintf("Duplicate field %s. Please use another value", field)
	if value != "" {
		message = fmt.Sprintf("Duplicate field %s: '%s'. Please use another value", field, value)
	}
	return NewAppError(ErrDuplicateKey, message, http.StatusBadRequest, "DUPLICATE")
}

func InvalidIDError(value string) *AppError {
	return NewAppError(
		ErrInvalidID,
		fmt.Sprintf("Invalid id: %s", value),
		http.StatusBadRequest,
		"INVALID_ID",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"Invalid token. Please log in again",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"Your token has expired. Please log in again",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func DeliveryError(message string) *AppError {
	return NewAppError(ErrDelivery, message, http.StatusInternalServerError, "DELIVERY_FAILED")
}

// Translate turns known error shapes (sentinels, Postgres errors) into
// operational errors. It returns false for anything unexpected.
func Translate(err error) (*AppError, bool) {
	if appErr, ok := AsAppError(err); ok {
		return appErr, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			field, value := parseDuplicateDetail(pgErr.Detail)
			return DuplicateError(field, value), true
		case "22P02":
			return NewAppError(
				ErrInvalidInput,
				"Invalid input syntax",
				http.StatusBadRequest,
				"INVALID_INPUT",
			), true
		}
	}

	switch {
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError(), true
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError(), true
	case errors.Is(err, ErrNotFound):
		return NotFoundError("Couldn't find document with that ID"), true
	case errors.Is(err, ErrDuplicateKey):
		return DuplicateError("value", ""), true
	case errors.Is(err, ErrInvalidID):
		return NewAppError(err, "Invalid id", http.StatusBadRequest, "INVALID_ID"), true
	case errors.Is(err, ErrInvalidInput):
		return ValidationError(err.Error()), true
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError(""), true
	case errors.Is(err, ErrForbidden):
		return ForbiddenError(""), true
	}

	return nil, false
}

var duplicateDetail = regexp.MustCompile(`Key \((?:lower\()?([a-z_]+)\)?\)=\((.*)\) already exists`)

func parseDuplicateDetail(detail string) (string, string) {
	m := duplicateDetail.FindStringSubmatch(detail)
	if len(m) != 3 {
		return "value", ""
	}
	return m[1], m[2]
}

func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}

	return strings.Join(msgs, ". ")
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return "Passwords are not the same"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
