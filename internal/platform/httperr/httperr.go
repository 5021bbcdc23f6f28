// Package httperr implements the API's stable error contract. Every error
// that escapes a handler is normalized into the JSON body
// {error, code, details?} with a machine-readable code, regardless of whether
// it originated in validation, the database driver, or application logic.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Machine-readable error codes shared across handlers.
const (
	CodeNoToken           = "NO_TOKEN"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeInsufficientPerms = "INSUFFICIENT_PERMISSIONS"
	CodeAccessDenied      = "ACCESS_DENIED"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicate         = "DUPLICATE_RECORD"
	CodeNotFound          = "NOT_FOUND"
	CodeForeignKey        = "FOREIGN_KEY_ERROR"
	CodeDatabase          = "DATABASE_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
	CodeStorageUpload     = "STORAGE_UPLOAD_FAILED"
)

// FieldError is a single per-field validation failure in the details list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an application error carrying the HTTP status and wire code.
type Error struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates an Error with the given status, code and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

func Internal(code, message string) *Error {
	return New(http.StatusInternalServerError, code, message)
}

// body is the wire shape of an error response.
type body struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Details []FieldError `json:"details,omitempty"`
	Stack   string       `json:"stack,omitempty"`
}

// Postgres error codes of interest.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ErrorHandler returns an echo.HTTPErrorHandler that classifies any error
// thrown by a handler into the stable wire shape. Stack traces are included
// only when dev is true.
func ErrorHandler(dev bool, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, b := normalize(err, dev)

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, b)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

// normalize maps an arbitrary error to a status and response body. It is a
// total function: every error lands in exactly one branch.
func normalize(err error, dev bool) (int, body) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, body{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details}
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, body{
			Error:   "Validation failed",
			Code:    CodeValidation,
			Details: fieldErrors(vErrs),
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			b := body{Error: "A record with this information already exists", Code: CodeDuplicate}
			if f := constraintField(pgErr.ConstraintName); f != "" {
				b.Details = []FieldError{{Field: f, Message: "must be unique"}}
			}
			return http.StatusConflict, b
		case pgForeignKeyViolation:
			return http.StatusBadRequest, body{Error: "Foreign key constraint failed", Code: CodeForeignKey}
		default:
			return http.StatusInternalServerError, body{Error: "Database error occurred", Code: CodeDatabase}
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, body{Error: "Record not found", Code: CodeNotFound}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok {
			msg = s
		}
		return httpErr.Code, body{Error: msg, Code: httpCode(httpErr.Code)}
	}

	b := body{Error: "Internal server error", Code: CodeInternal}
	if dev {
		var stack [4096]byte
		n := runtime.Stack(stack[:], false)
		b.Stack = err.Error() + "\n" + string(stack[:n])
	}
	return http.StatusInternalServerError, b
}

// fieldErrors converts validator failures into per-field details. Field names
// are lower-camel to match the JSON request shape.
func fieldErrors(errs validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		details = append(details, FieldError{
			Field:   lowerFirst(fe.Field()),
			Message: validationMessage(fe),
		})
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a valid timestamp"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// constraintField extracts the column name from a Postgres constraint name
// following the <table>_<column>_key convention, e.g. "patients_email_key"
// yields "email".
func constraintField(constraint string) string {
	trimmed := strings.TrimSuffix(constraint, "_key")
	trimmed = strings.TrimSuffix(trimmed, "_idx")
	if trimmed == constraint {
		return ""
	}
	if i := strings.LastIndex(trimmed, "_"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func httpCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeInvalidToken
	case http.StatusForbidden:
		return CodeAccessDenied
	case http.StatusBadRequest:
		return CodeValidation
	default:
		return CodeInternal
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
