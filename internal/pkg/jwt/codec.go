package jwt

import (
	"bytes"
	"time"
)

const (
	// DefaultAccessTTL is used when CodecConfig.AccessTTL is zero.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is used when CodecConfig.RefreshTTL is zero.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// CodecConfig is everything a Codec needs. Nothing is read from the
// environment.
type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audiences     []string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Clock         clocker
	UUID          generator
}

// Codec issues and verifies access and refresh tokens.
type Codec struct {
	access  *Symmetric
	refresh *Symmetric
}

// NewCodec builds both signers. The two secrets must each be at least 64
// bytes and must differ.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, ErrSecretReused
	}

	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	access, err := NewHS512(Config{
		Secret:    cfg.AccessSecret,
		Issuer:    cfg.Issuer,
		Audiences: cfg.Audiences,
		TTL:       cfg.AccessTTL,
		Class:     ClassAccess,
		Clock:     cfg.Clock,
		UUID:      cfg.UUID,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := NewHS512(Config{
		Secret:    cfg.RefreshSecret,
		Issuer:    cfg.Issuer,
		Audiences: cfg.Audiences,
		TTL:       cfg.RefreshTTL,
		Class:     ClassRefresh,
		Clock:     cfg.Clock,
		UUID:      cfg.UUID,
	})
	if err != nil {
		return nil, err
	}

	return &Codec{access: access, refresh: refresh}, nil
}

// IssueAccess signs a new access token.
func (c *Codec) IssueAccess(uid int64, email string) (string, error) {
	return c.access.Generate(uid, email)
}

// IssueRefresh signs a new refresh token.
func (c *Codec) IssueRefresh(uid int64, email string) (string, error) {
	return c.refresh.Generate(uid, email)
}

// Verify checks token as a token of class.
func (c *Codec) Verify(token string, class Class) (Claims, error) {
	switch class {
	case ClassAccess:
		return c.access.Verify(token)
	case ClassRefresh:
		return c.refresh.Verify(token)
	default:
		return Claims{}, ErrInvalidToken
	}
}

// Access exposes the access signer for the HTTP auth middleware.
func (c *Codec) Access() JWT {
	return c.access
}
