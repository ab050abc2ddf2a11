package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type tokenPair struct {
	access        string
	refresh       string
	refreshDigest string
}

func (s *Usecase) issueTokens(ctx context.Context, user *entity.User) (*tokenPair, error) {
	access, err := s.codec.IssueAccess(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue access token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refresh, err := s.codec.IssueRefresh(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.digest(ctx, refresh)
	if err != nil {
		return nil, err
	}

	return &tokenPair{access: access, refresh: refresh, refreshDigest: digest}, nil
}

// startSession issues a token pair and makes its refresh token the only valid one.
func (s *Usecase) startSession(ctx context.Context, user *entity.User) (*LoginOutput, error) {
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.SetRefreshToken(ctx, user.ID, pair.refreshDigest); err != nil {
		slog.ErrorContext(ctx, "failed to repo set refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		State:        entity.LoginStateAuthenticated,
		UserID:       user.ID,
		AccessToken:  pair.access,
		RefreshToken: pair.refresh,
	}, nil
}
