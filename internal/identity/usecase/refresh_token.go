package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	in.RefreshToken = strings.TrimSpace(in.RefreshToken)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	oldDigest, err := s.digest(ctx, in.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repoDB.GetUserByRefreshToken(ctx, oldDigest)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user refresh token not found")
		return nil, errInvalidRefreshToken
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	clm, err := s.codec.Verify(in.RefreshToken, jwt.ClassRefresh)
	if err != nil || clm.UserID != user.ID {
		if errors.Is(err, jwt.ErrTokenExpired) {
			slog.WarnContext(ctx, "refresh token is expired", "user_id", user.ID)
		} else {
			slog.WarnContext(ctx, "refresh token failed verification", "user_id", user.ID, "error", err)
		}

		if err := s.revoke(ctx, user.ID, oldDigest, revokeReasonInvalidToken); err != nil {
			return nil, err
		}
		return nil, errInvalidRefreshToken
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.repoDB.SwapRefreshToken(ctx, entity.RefreshTokenSwap{
		UserID:   user.ID,
		Expected: oldDigest,
		Next:     pair.refreshDigest,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "refresh token already rotated", "user_id", user.ID)
		return nil, errInvalidRefreshToken
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo swap refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshTokenOutput{
		AccessToken:  pair.access,
		RefreshToken: pair.refresh,
	}, nil
}

// revoke clears the session held by digest. A session that already moved on
// is left alone.
func (s *Usecase) revoke(ctx context.Context, userID int64, digest, reason string) error {
	err := s.repoDB.SwapRefreshToken(ctx, entity.RefreshTokenSwap{
		UserID:   userID,
		Expected: digest,
	})
	if errors.Is(err, goerror.ErrConflict) {
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo clear refresh token", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	ev := SessionRevokedEvent{UserID: userID, Reason: reason, OccurredAt: s.clock.Now()}
	s.publish(ctx, "session_revoked", func(ctx context.Context) error {
		return s.repoMessaging.PublishSessionRevoked(ctx, ev)
	})

	return nil
}
