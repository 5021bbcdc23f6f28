package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clearaf/api/internal/platform/httperr"
)

type staticDirectory struct {
	role    Role
	missing bool
	err     error
}

func (d staticDirectory) ResolveRole(ctx context.Context, email string) (Role, error) {
	return d.role, d.err
}

func (d staticDirectory) Exists(ctx context.Context, userID string, role Role) (bool, error) {
	return !d.missing, d.err
}

func runAuth(t *testing.T, verifier CredentialVerifier, directory Directory, authHeader string) (*Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var got *Identity
	h := Authenticate(verifier, directory)(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})
	return got, h(c)
}

func TestAuthenticateMissingToken(t *testing.T) {
	v := NewJWTVerifier("secret")
	for _, header := range []string{"", "Basic abc", "Bearer"} {
		_, err := runAuth(t, v, staticDirectory{}, header)
		var appErr *httperr.Error
		if !errors.As(err, &appErr) || appErr.Code != httperr.CodeNoToken {
			t.Errorf("header %q: got %v, want NO_TOKEN", header, err)
		}
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	v := NewJWTVerifier("secret")
	_, err := runAuth(t, v, staticDirectory{}, "Bearer bogus")
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != httperr.CodeInvalidToken {
		t.Errorf("got %v, want INVALID_TOKEN", err)
	}
}

func TestAuthenticateSetsIdentity(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, err := v.IssueToken(Identity{UserID: "u1", Email: "a@b.com", Role: RolePatient})
	if err != nil {
		t.Fatal(err)
	}

	got, err := runAuth(t, v, staticDirectory{}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserID != "u1" || got.Role != RolePatient {
		t.Errorf("identity = %+v", got)
	}
}

func TestAuthenticateResolvesMissingRole(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, err := v.IssueToken(Identity{UserID: "u2", Email: "derm@clinic.com"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := runAuth(t, v, staticDirectory{role: RoleDermatologist}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Role != RoleDermatologist {
		t.Errorf("role = %q, want dermatologist", got.Role)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, err := v.IssueToken(Identity{UserID: "gone", Email: "x@y.com", Role: RolePatient})
	if err != nil {
		t.Fatal(err)
	}

	_, err = runAuth(t, v, staticDirectory{missing: true}, "Bearer "+token)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != httperr.CodeUserNotFound {
		t.Errorf("got %v, want USER_NOT_FOUND", err)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		mw       echo.MiddlewareFunc
		identity *Identity
		wantCode string
	}{
		{"patient allowed", RequirePatient(), &Identity{Role: RolePatient}, ""},
		{"derm blocked from patient route", RequirePatient(), &Identity{Role: RoleDermatologist}, httperr.CodeInsufficientPerms},
		{"derm allowed", RequireDermatologist(), &Identity{Role: RoleDermatologist}, ""},
		{"unauthenticated", RequireDermatologist(), nil, httperr.CodeNoToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.identity != nil {
				SetIdentity(c, tt.identity)
			}

			err := tt.mw(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var appErr *httperr.Error
			if !errors.As(err, &appErr) || appErr.Code != tt.wantCode {
				t.Errorf("got %v, want code %s", err, tt.wantCode)
			}
		})
	}
}
