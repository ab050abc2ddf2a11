package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Config defines the inputs for a single-class signer.
type Config struct {
	// Secret is the HMAC signing key, at least 64 bytes.
	Secret []byte
	// Issuer is written to and required on every token.
	Issuer string
	// Audiences are written to every token; verification needs one to match.
	Audiences []string
	// TTL is the token lifetime.
	TTL time.Duration
	// Class is stamped into the token_class claim and required on verify.
	Class Class
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token ids.
	UUID generator
}

// Symmetric signs and verifies one class of token with HS512.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	class     Class
	clock     clocker
	uuid      generator
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		class:     cfg.Class,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

// Generate creates a signed token for the user.
func (s *Symmetric) Generate(uid int64, email string) (string, error) {
	now := s.clock.Now()

	return libJWT.
		NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				ID:        s.uuid.Generate(),
				Subject:   strconv.FormatInt(uid, 10),
				Issuer:    s.issuer,
				Audience:  s.audiences,
				IssuedAt:  libJWT.NewNumericDate(now),
				NotBefore: libJWT.NewNumericDate(now),
				ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
			},
			UserID:     uid,
			UserEmail:  email,
			TokenClass: s.class,
		}).
		SignedString(s.secret)
}

// Verify parses tokenStr and checks signature, issuer, audience, time claims
// and class. An authentic token that is only past its expiry yields
// ErrTokenExpired; everything else yields ErrInvalidToken.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	opts := []libJWT.ParserOption{
		libJWT.WithIssuer(s.issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	}
	if len(s.audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(s.audiences...))
	}

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, s.key, opts...)
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) && onlyExpired(err) && s.authentic(tokenStr) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	if !token.Valid || !s.owned(claims) {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (s *Symmetric) key(*libJWT.Token) (any, error) {
	return s.secret, nil
}

// owned reports whether claims were minted by this signer's class.
func (s *Symmetric) owned(c Claims) bool {
	return c.TokenClass == s.class && c.Subject == strconv.FormatInt(c.UserID, 10)
}

// authentic re-checks signature and class with time claims skipped, so an
// expired token is only reported as expired when it was really ours.
func (s *Symmetric) authentic(tokenStr string) bool {
	var claims Claims

	token, err := libJWT.ParseWithClaims(tokenStr, &claims, s.key,
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithoutClaimsValidation(),
	)

	return err == nil && token.Valid && claims.Issuer == s.issuer && s.owned(claims)
}

// onlyExpired reports whether expiry is the sole validation failure. The
// library joins every failed claim check into one error, so an expired token
// with a wrong audience must still count as invalid.
func onlyExpired(err error) bool {
	for _, other := range []error{
		libJWT.ErrTokenSignatureInvalid,
		libJWT.ErrTokenMalformed,
		libJWT.ErrTokenUnverifiable,
		libJWT.ErrTokenInvalidIssuer,
		libJWT.ErrTokenInvalidAudience,
		libJWT.ErrTokenNotValidYet,
		libJWT.ErrTokenUsedBeforeIssued,
		libJWT.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}

	return true
}
