package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type TOTPConfirmInput struct {
	Code string `validate:"required,totp"`
}

func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) error {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	if user.TwoFactorEnabled {
		slog.WarnContext(ctx, "two factor already enabled", "user_id", user.ID)
		return errTwoFactorAlreadyEnabled
	}

	if !user.HasPendingTwoFactor() {
		slog.WarnContext(ctx, "two factor secret not found", "user_id", user.ID)
		return errTwoFactorNotSetup
	}

	if err := s.acceptTOTP(ctx, user, in.Code); err != nil {
		return err
	}

	// only the secret the code was checked against may be enabled
	err = s.repoDB.EnableTwoFactor(ctx, user.ID, user.TwoFactorSecret)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "two factor secret replaced before enable", "user_id", user.ID)
		return errTwoFactorNotSetup
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo enable two factor", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	ev := TwoFactorEnabledEvent{UserID: user.ID, OccurredAt: s.clock.Now()}
	s.publish(ctx, "two_factor_enabled", func(ctx context.Context) error {
		return s.repoMessaging.PublishTwoFactorEnabled(ctx, ev)
	})

	return nil
}
