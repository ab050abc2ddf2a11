package entity

import "time"

type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	// RefreshTokenHash is the HMAC digest of the one outstanding refresh
	// token. Empty means the user has no session.
	RefreshTokenHash string
	TwoFactorEnabled bool
	// TwoFactorSecret is the sealed TOTP secret, nil until setup.
	TwoFactorSecret []byte
	// TOTPLastStep is the last accepted TOTP time step.
	TOTPLastStep int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasSession() bool {
	return u.RefreshTokenHash != ""
}

func (u *User) HasPendingTwoFactor() bool {
	return len(u.TwoFactorSecret) > 0
}

type NewUser struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
}

// RefreshTokenSwap replaces Expected with Next only when the stored digest
// still equals Expected. An empty Next clears the session.
type RefreshTokenSwap struct {
	UserID   int64
	Expected string
	Next     string
}
