package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func execHandler(t *testing.T, err error, dev bool) (*httptest.ResponseRecorder, body) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := ErrorHandler(dev, zerolog.Nop())
	h(err, c)

	var b body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	return rec, b
}

func TestAppError(t *testing.T) {
	rec, b := execHandler(t, Conflict("TIME_CONFLICT", "Time slot not available"), false)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if b.Code != "TIME_CONFLICT" {
		t.Errorf("code = %q, want TIME_CONFLICT", b.Code)
	}
	if b.Error != "Time slot not available" {
		t.Errorf("error = %q", b.Error)
	}
}

func TestUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "patients_email_key"}
	rec, b := execHandler(t, err, false)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if b.Code != CodeDuplicate {
		t.Errorf("code = %q, want %s", b.Code, CodeDuplicate)
	}
	if len(b.Details) != 1 || b.Details[0].Field != "email" {
		t.Errorf("details = %+v, want email field", b.Details)
	}
}

func TestForeignKeyViolation(t *testing.T) {
	rec, b := execHandler(t, &pgconn.PgError{Code: "23503"}, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if b.Code != CodeForeignKey {
		t.Errorf("code = %q, want %s", b.Code, CodeForeignKey)
	}
}

func TestOtherPgError(t *testing.T) {
	rec, b := execHandler(t, &pgconn.PgError{Code: "53300"}, false)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if b.Code != CodeDatabase {
		t.Errorf("code = %q, want %s", b.Code, CodeDatabase)
	}
}

func TestNoRows(t *testing.T) {
	rec, b := execHandler(t, fmt.Errorf("get patient: %w", pgx.ErrNoRows), false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if b.Code != CodeNotFound {
		t.Errorf("code = %q, want %s", b.Code, CodeNotFound)
	}
}

func TestValidationErrors(t *testing.T) {
	v := validator.New()
	input := struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}{Email: "not-an-email", Password: "abc"}

	err := v.Struct(input)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	rec, b := execHandler(t, err, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if b.Code != CodeValidation {
		t.Errorf("code = %q, want %s", b.Code, CodeValidation)
	}
	if len(b.Details) != 2 {
		t.Fatalf("details = %+v, want 2 entries", b.Details)
	}
	if b.Details[0].Field != "email" {
		t.Errorf("first field = %q, want email", b.Details[0].Field)
	}
	if !strings.Contains(b.Details[1].Message, "at least 6") {
		t.Errorf("min message = %q", b.Details[1].Message)
	}
}

func TestEchoHTTPError(t *testing.T) {
	rec, b := execHandler(t, echo.NewHTTPError(http.StatusNotFound, "route not found"), false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if b.Code != CodeNotFound {
		t.Errorf("code = %q, want %s", b.Code, CodeNotFound)
	}
	if b.Error != "route not found" {
		t.Errorf("error = %q", b.Error)
	}
}

func TestUnknownError(t *testing.T) {
	rec, b := execHandler(t, errors.New("boom"), false)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if b.Code != CodeInternal {
		t.Errorf("code = %q, want %s", b.Code, CodeInternal)
	}
	if b.Stack != "" {
		t.Error("stack must not leak outside development")
	}
}

func TestUnknownErrorDevStack(t *testing.T) {
	_, b := execHandler(t, errors.New("boom"), true)
	if b.Stack == "" {
		t.Error("expected stack trace in development mode")
	}
	if !strings.Contains(b.Stack, "boom") {
		t.Errorf("stack should include the error message, got %q", b.Stack[:40])
	}
}

func TestConstraintField(t *testing.T) {
	tests := []struct {
		constraint string
		want       string
	}{
		{"patients_email_key", "email"},
		{"dermatologists_email_key", "email"},
		{"skin_photos_user_id_idx", "id"},
		{"no_suffix_constraint", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := constraintField(tt.constraint); got != tt.want {
			t.Errorf("constraintField(%q) = %q, want %q", tt.constraint, got, tt.want)
		}
	}
}
