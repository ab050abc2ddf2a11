package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	State             entity.LoginState
	TwoFactorRequired bool
	UserID            int64
	//
	AccessToken  string
	RefreshToken string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.compareDummy(ctx, in.Password)
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, errInvalidCredentials
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.password.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, hash.ErrMalformedHash) {
			slog.ErrorContext(ctx, "stored password hash is malformed", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, errInvalidCredentials
	}

	if user.TwoFactorEnabled {
		return &LoginOutput{
			State:             entity.LoginStateTwoFactorPending,
			TwoFactorRequired: true,
			UserID:            user.ID,
		}, nil
	}

	return s.startSession(ctx, user)
}

func (s *Usecase) compareDummy(ctx context.Context, password string) {
	dummy, err := s.dummyHash()
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash dummy password", "error", err)
		return
	}

	//nolint:errcheck // result is discarded, only the cost matters
	_ = s.password.Compare(dummy, password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
