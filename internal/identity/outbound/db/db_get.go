package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/authgate/internal/identity/entity"
)

const selectUser = `SELECT id, email, full_name, password_hash, COALESCE(refresh_token_hash, ''),
	two_factor_enabled, two_factor_secret, totp_last_step, created_at, updated_at
	FROM identity_users `

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, selectUser+`WHERE LOWER(email) = LOWER($1)`, email)
}

func (s *DB) GetUserByRefreshToken(ctx context.Context, tokenHash string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByRefreshToken")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, selectUser+`WHERE refresh_token_hash = $1`, tokenHash)
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	return s.getUser(ctx, selectUser+`WHERE id = $1`, id)
}

func (s *DB) getUser(ctx context.Context, query string, arg any) (*entity.User, error) {
	user, err := scanUser(s.conn.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.RefreshTokenHash,
		&u.TwoFactorEnabled,
		&u.TwoFactorSecret,
		&u.TOTPLastStep,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &u, nil
}
