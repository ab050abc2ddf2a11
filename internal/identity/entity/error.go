package entity

import "errors"

var (
	ErrInvalidCredentials           = errors.New("identity: invalid email or password")
	ErrInvalidTwoFactorCode         = errors.New("identity: invalid two factor code")
	ErrInvalidOrExpiredRefreshToken = errors.New("identity: invalid or expired refresh token")
	ErrUserNotFound                 = errors.New("identity: user not found")
	ErrTwoFactorAlreadyEnabled      = errors.New("identity: two factor already enabled")
	ErrTwoFactorNotSetup            = errors.New("identity: two factor not set up")
	ErrEmailAlreadyRegistered       = errors.New("identity: email already registered")
)
