package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/mfa"
)

type Login2FAInput struct {
	UserID int64  `validate:"required,gt=0"`
	Code   string `validate:"required"`
}

func (s *Usecase) Login2FA(ctx context.Context, in Login2FAInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, in.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", in.UserID)
		return nil, errInvalidTwoFactorCode
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !user.TwoFactorEnabled || !user.HasPendingTwoFactor() {
		slog.WarnContext(ctx, "two factor is not enabled", "user_id", user.ID)
		return nil, errInvalidTwoFactorCode
	}

	if err := s.acceptTOTP(ctx, user, in.Code); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

// acceptTOTP checks code against the user's sealed secret and consumes its
// time step so the same code cannot be used twice.
func (s *Usecase) acceptTOTP(ctx context.Context, user *entity.User, code string) error {
	secret, err := s.mfaEncryptor.Decrypt(user.TwoFactorSecret, mfa.TOTPSeed(user.ID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	step, ok := s.totp.ValidateStep(code, string(secret), s.clock.Now())
	if !ok {
		slog.WarnContext(ctx, "invalid totp code", "user_id", user.ID)
		return errInvalidTwoFactorCode
	}

	advanced, err := s.repoDB.AdvanceTOTPStep(ctx, user.ID, step)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo advance totp step", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !advanced {
		slog.WarnContext(ctx, "totp code replayed", "user_id", user.ID, "step", step)
		return errInvalidTwoFactorCode
	}

	return nil
}
