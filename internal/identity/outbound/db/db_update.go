package db

import (
	"context"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

func (s *DB) SetRefreshToken(ctx context.Context, userID int64, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "SetRefreshToken")
	defer func() { s.endSpan(span, err) }()

	err = s.execOne(ctx, goerror.ErrNotFound,
		`UPDATE identity_users SET refresh_token_hash = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`,
		userID, tokenHash,
	)
	return err
}

// SwapRefreshToken is a compare-and-swap on the stored digest. Zero rows
// means another request rotated or cleared it first.
func (s *DB) SwapRefreshToken(ctx context.Context, swap entity.RefreshTokenSwap) (err error) {
	ctx, span := s.startSpan(ctx, "SwapRefreshToken")
	defer func() { s.endSpan(span, err) }()

	err = s.execOne(ctx, goerror.ErrConflict,
		`UPDATE identity_users SET refresh_token_hash = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash IS NOT DISTINCT FROM NULLIF($2, '')`,
		swap.UserID, swap.Expected, swap.Next,
	)
	return err
}

func (s *DB) SetTwoFactorSecret(ctx context.Context, userID int64, sealed []byte) (err error) {
	ctx, span := s.startSpan(ctx, "SetTwoFactorSecret")
	defer func() { s.endSpan(span, err) }()

	err = s.execOne(ctx, goerror.ErrNotFound,
		`UPDATE identity_users SET two_factor_secret = $2, updated_at = NOW() WHERE id = $1`,
		userID, sealed,
	)
	return err
}

// EnableTwoFactor turns 2FA on only while the stored secret still equals
// sealed. A replaced or missing secret yields goerror.ErrNotFound.
func (s *DB) EnableTwoFactor(ctx context.Context, userID int64, sealed []byte) (err error) {
	ctx, span := s.startSpan(ctx, "EnableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	if len(sealed) == 0 {
		return goerror.ErrNotFound
	}

	err = s.execOne(ctx, goerror.ErrNotFound,
		`UPDATE identity_users SET two_factor_enabled = TRUE, updated_at = NOW()
		WHERE id = $1 AND two_factor_secret = $2`,
		userID, sealed,
	)
	return err
}

func (s *DB) AdvanceTOTPStep(ctx context.Context, userID, step int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "AdvanceTOTPStep")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identity_users SET totp_last_step = $2, updated_at = NOW() WHERE id = $1 AND totp_last_step < $2`,
		userID, step,
	)
	if err != nil {
		return false, s.mapError(err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// tell a replayed step apart from a missing user
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return false, err
	}

	return false, nil
}

// execOne runs a single-row update and returns none when no row matched.
func (s *DB) execOne(ctx context.Context, none error, query string, args ...any) error {
	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return none
	}

	return nil
}
