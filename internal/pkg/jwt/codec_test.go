package jwt

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
)

var (
	accessSecret  = []byte(strings.Repeat("a", 64))
	refreshSecret = []byte(strings.Repeat("r", 64))
)

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "jti-" + strconv.Itoa(s.n)
}

func newTestCodec(t *testing.T, clk *clock.Manual) *Codec {
	t.Helper()

	c, err := NewCodec(CodecConfig{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		Issuer:        "authgate",
		Audiences:     []string{"authgate-api"},
		Clock:         clk,
		UUID:          &seqID{},
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}

	return c
}

func TestCodec_IssueAndVerify(t *testing.T) {
	// Arrange
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := newTestCodec(t, clk)

	// Act
	access, err := c.IssueAccess(42, "a@b.test")
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	refresh, err := c.IssueRefresh(42, "a@b.test")
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	// Assert
	ac, err := c.Verify(access, ClassAccess)
	if err != nil {
		t.Fatalf("Verify(access) error = %v", err)
	}
	if ac.UserID != 42 || ac.Subject != "42" || ac.UserEmail != "a@b.test" {
		t.Fatalf("access claims = %+v", ac)
	}
	if got := ac.ExpiresAt.Sub(ac.IssuedAt.Time); got != DefaultAccessTTL {
		t.Fatalf("access ttl = %v, want %v", got, DefaultAccessTTL)
	}

	rc, err := c.Verify(refresh, ClassRefresh)
	if err != nil {
		t.Fatalf("Verify(refresh) error = %v", err)
	}
	if got := rc.ExpiresAt.Sub(rc.IssuedAt.Time); got != DefaultRefreshTTL {
		t.Fatalf("refresh ttl = %v, want %v", got, DefaultRefreshTTL)
	}
	if rc.ID == ac.ID {
		t.Fatalf("access and refresh share jti %q", rc.ID)
	}
}

func TestCodec_ClassesAreNotInterchangeable(t *testing.T) {
	clk := clock.NewManual(time.Now())
	c := newTestCodec(t, clk)

	access, _ := c.IssueAccess(1, "x@y.test")
	refresh, _ := c.IssueRefresh(1, "x@y.test")

	if _, err := c.Verify(access, ClassRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify(access as refresh) error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := c.Verify(refresh, ClassAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify(refresh as access) error = %v, want %v", err, ErrInvalidToken)
	}
	if _, err := c.Verify(access, Class("other")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify(unknown class) error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestCodec_ExpiredVersusInvalid(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := newTestCodec(t, clk)

	access, _ := c.IssueAccess(7, "e@x.test")
	refresh, _ := c.IssueRefresh(7, "e@x.test")

	t.Run("access valid just before expiry", func(t *testing.T) {
		clk.Set(time.Date(2026, 3, 1, 12, 14, 59, 0, time.UTC))
		if _, err := c.Verify(access, ClassAccess); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
	})

	t.Run("access expired", func(t *testing.T) {
		clk.Set(time.Date(2026, 3, 1, 12, 16, 0, 0, time.UTC))
		if _, err := c.Verify(access, ClassAccess); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("Verify() error = %v, want %v", err, ErrTokenExpired)
		}
	})

	t.Run("refresh still valid after access expiry", func(t *testing.T) {
		if _, err := c.Verify(refresh, ClassRefresh); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
	})

	t.Run("refresh expired after seven days", func(t *testing.T) {
		clk.Set(time.Date(2026, 3, 8, 12, 0, 1, 0, time.UTC))
		if _, err := c.Verify(refresh, ClassRefresh); !errors.Is(err, ErrTokenExpired) {
			t.Fatalf("Verify() error = %v, want %v", err, ErrTokenExpired)
		}
	})

	t.Run("forged expired token is invalid not expired", func(t *testing.T) {
		forged, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
			RegisteredClaims: libJWT.RegisteredClaims{
				Subject:   "7",
				Issuer:    "authgate",
				Audience:  []string{"authgate-api"},
				IssuedAt:  libJWT.NewNumericDate(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
				ExpiresAt: libJWT.NewNumericDate(time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)),
			},
			UserID:     7,
			TokenClass: ClassAccess,
		}).SignedString([]byte(strings.Repeat("z", 64)))
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}

		if _, err := c.Verify(forged, ClassAccess); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify() error = %v, want %v", err, ErrInvalidToken)
		}
	})
}

func TestCodec_RejectsTampering(t *testing.T) {
	clk := clock.NewManual(time.Now())
	c := newTestCodec(t, clk)
	token, _ := c.IssueAccess(9, "t@x.test")

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for name, tok := range map[string]string{
		"garbage":        "not.a.jwt",
		"empty":          "",
		"bad signature":  tampered,
		"none algorithm": "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiI5In0.",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Verify(tok, ClassAccess); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestNewCodec_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  CodecConfig
		want error
	}{
		{
			name: "same secret",
			cfg:  CodecConfig{AccessSecret: accessSecret, RefreshSecret: accessSecret},
			want: ErrSecretReused,
		},
		{
			name: "short access secret",
			cfg:  CodecConfig{AccessSecret: []byte("short"), RefreshSecret: refreshSecret},
			want: ErrSigningKeyTooShort,
		},
		{
			name: "short refresh secret",
			cfg:  CodecConfig{AccessSecret: accessSecret, RefreshSecret: []byte("short")},
			want: ErrSigningKeyTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCodec(tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("NewCodec() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthContext(t *testing.T) {
	if GetAuth(context.Background()) != nil {
		t.Fatalf("GetAuth(empty) != nil")
	}

	ctx := SetAuth(context.Background(), Claims{UserID: 5})
	if got := GetAuth(ctx); got == nil || got.UserID != 5 {
		t.Fatalf("GetAuth() = %+v", got)
	}
}
