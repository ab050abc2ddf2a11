package db

import (
	"context"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
)

func (s *DB) CreateUser(ctx context.Context, user entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO identity_users (id, email, full_name, password_hash) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.FullName, user.PasswordHash,
	)
	err = s.mapError(err)
	return err
}
