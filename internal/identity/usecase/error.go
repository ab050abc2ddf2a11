package usecase

import (
	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

var (
	errInvalidCredentials = goerror.NewBusinessErr(entity.ErrInvalidCredentials,
		"invalid email or password", goerror.CodeUnauthorized)

	errInvalidTwoFactorCode = goerror.NewBusinessErr(entity.ErrInvalidTwoFactorCode,
		"invalid two factor code", goerror.CodeUnauthorized)

	errInvalidRefreshToken = goerror.NewBusinessErr(entity.ErrInvalidOrExpiredRefreshToken,
		"invalid or expired refresh token", goerror.CodeForbidden)

	errTwoFactorAlreadyEnabled = goerror.NewBusinessErr(entity.ErrTwoFactorAlreadyEnabled,
		"two factor authentication is already enabled", goerror.CodeConflict)

	errTwoFactorNotSetup = goerror.NewBusinessErr(entity.ErrTwoFactorNotSetup,
		"two factor authentication has not been set up", goerror.CodeNotFound)

	errEmailAlreadyRegistered = goerror.NewBusinessErr(entity.ErrEmailAlreadyRegistered,
		"email already registered", goerror.CodeConflict)

	errAuthRequired = goerror.NewBusinessErr(entity.ErrUserNotFound,
		"authentication required", goerror.CodeUnauthorized)
)
