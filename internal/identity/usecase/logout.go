package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type LogoutInput struct {
	RefreshToken string
}

// Logout clears the session owning the refresh token. Unknown, rotated or
// empty tokens succeed without doing anything.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	token := strings.TrimSpace(in.RefreshToken)
	if token == "" {
		return nil
	}

	digest, err := s.digest(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.repoDB.GetUserByRefreshToken(ctx, digest)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by refresh token", "error", err)
		return goerror.NewServer(err)
	}

	return s.revoke(ctx, user.ID, digest, revokeReasonLogout)
}
