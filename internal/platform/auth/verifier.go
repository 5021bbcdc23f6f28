package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNoCredential means the request carried no bearer token.
	ErrNoCredential = errors.New("auth: no credential")
	// ErrInvalidCredential means the token was present but failed verification.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Role distinguishes the two kinds of platform users.
type Role string

const (
	RolePatient       Role = "patient"
	RoleDermatologist Role = "dermatologist"
)

// Identity is the verified caller extracted from a bearer token. Role may be
// empty when the token itself does not carry one; the middleware resolves it
// against the database in that case.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// CredentialVerifier turns a raw bearer token into a verified identity.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

const bcryptCost = 12

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// JWTVerifier verifies locally issued HS256 tokens.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type tokenClaims struct {
	Email    string `json:"email"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

const tokenTTL = 7 * 24 * time.Hour

// IssueToken signs a token for the given identity, valid for seven days.
func (v *JWTVerifier) IssueToken(id Identity) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email:    id.Email,
		UserType: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNoCredential
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return nil, ErrInvalidCredential
	}

	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   Role(claims.UserType),
	}, nil
}
