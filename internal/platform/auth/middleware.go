package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clearaf/api/internal/platform/httperr"
)

const identityContextKey = "auth.identity"

// Directory answers identity questions the credential alone cannot.
// ResolveRole determines a user's role when the token does not carry one;
// delegated tokens issued before roles were added to user metadata fall into
// this case. Exists confirms the subject still has a row in its identity
// table.
type Directory interface {
	ResolveRole(ctx context.Context, email string) (Role, error)
	Exists(ctx context.Context, userID string, role Role) (bool, error)
}

// Authenticate extracts and verifies the bearer token, resolving the caller's
// role when the token omits it, confirming the subject still exists, and
// stores the identity on the context.
func Authenticate(verifier CredentialVerifier, directory Directory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return httperr.Unauthorized(httperr.CodeNoToken, "access token required")
			}

			id, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				if err == ErrNoCredential {
					return httperr.Unauthorized(httperr.CodeNoToken, "access token required")
				}
				if err == ErrInvalidCredential {
					return httperr.Unauthorized(httperr.CodeInvalidToken, "invalid or expired token")
				}
				return err
			}

			if id.Role == "" {
				role, err := directory.ResolveRole(c.Request().Context(), id.Email)
				if err != nil {
					return err
				}
				id.Role = role
			}

			ok, err := directory.Exists(c.Request().Context(), id.UserID, id.Role)
			if err != nil {
				return err
			}
			if !ok {
				return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
			}

			c.Set(identityContextKey, id)
			return next(c)
		}
	}
}

// RequirePatient rejects requests from non-patient callers.
func RequirePatient() echo.MiddlewareFunc {
	return requireRole(RolePatient)
}

// RequireDermatologist rejects requests from non-dermatologist callers.
func RequireDermatologist() echo.MiddlewareFunc {
	return requireRole(RoleDermatologist)
}

func requireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if id == nil {
				return httperr.Unauthorized(httperr.CodeNoToken, "access token required")
			}
			if id.Role != role {
				return httperr.Forbidden(httperr.CodeInsufficientPerms, "insufficient permissions")
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the verified identity set by Authenticate, or nil.
func IdentityFrom(c echo.Context) *Identity {
	id, _ := c.Get(identityContextKey).(*Identity)
	return id
}

// SetIdentity stores an identity on the context. Exposed for handler tests.
func SetIdentity(c echo.Context, id *Identity) {
	c.Set(identityContextKey, id)
}

// BearerToken extracts the bearer token from the Authorization header, or
// returns the empty string.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
