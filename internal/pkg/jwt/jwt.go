package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrSecretReused is returned when access and refresh tokens share a secret.
	ErrSecretReused = errors.New("access and refresh tokens must use different secrets")

	// ErrTokenExpired is returned for an authentic token past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidToken is returned for malformed, forged or mis-scoped tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Class distinguishes the two kinds of token a Codec issues.
type Class string

const (
	// ClassAccess authorizes API calls.
	ClassAccess Class = "access"
	// ClassRefresh can only be exchanged for a new token pair.
	ClassRefresh Class = "refresh"
)

// JWT issues and verifies tokens of a single class.
type JWT interface {
	// Generate creates a signed token for the user.
	Generate(uid int64, email string) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Claims are the registered claims plus the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	// UserID mirrors the subject as a number.
	UserID int64 `json:"user_id,string"`
	// UserEmail is the email at the time of issue.
	UserEmail string `json:"user_email"`
	// TokenClass is ClassAccess or ClassRefresh.
	TokenClass Class `json:"token_class"`
}

// GetAuth returns the access claims stored in ctx by the auth middleware.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
