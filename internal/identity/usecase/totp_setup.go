package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/mfa"
)

type TOTPSetupOutput struct {
	Secret string
	URI    string
}

// TOTPSetup stores a fresh sealed secret for the caller, replacing any
// unconfirmed one. Two factor stays disabled until TOTPConfirm.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled {
		slog.WarnContext(ctx, "two factor already enabled", "user_id", user.ID)
		return nil, errTwoFactorAlreadyEnabled
	}

	secret, uri, err := s.totp.Generate(user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.TOTPSeed(user.ID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.SetTwoFactorSecret(ctx, user.ID, sealed); err != nil {
		slog.ErrorContext(ctx, "failed to repo set two factor secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TOTPSetupOutput{
		Secret: secret,
		URI:    uri,
	}, nil
}
