package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type ProfileOutput struct {
	ID               int64
	Email            string
	FullName         string
	TwoFactorEnabled bool
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{
		ID:               user.ID,
		Email:            user.Email,
		FullName:         user.FullName,
		TwoFactorEnabled: user.TwoFactorEnabled,
	}, nil
}

// currentUser loads the user named by the access token in ctx.
func (s *Usecase) currentUser(ctx context.Context) (*entity.User, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, errAuthRequired
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return user, nil
}
