// Package memory is an in-process user store with the same compare-and-swap
// semantics as the PostgreSQL adapter. It backs local runs and tests.
package memory

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type Store struct {
	clock clock.Clocker

	mu      sync.RWMutex
	users   map[int64]*entity.User
	byEmail map[string]int64
}

func NewStore(clk clock.Clocker) *Store {
	return &Store{
		clock:   clk,
		users:   map[int64]*entity.User{},
		byEmail: map[string]int64{},
	}
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return clone(s.users[id]), nil
}

func (s *Store) GetUserByRefreshToken(ctx context.Context, tokenHash string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tokenHash == "" {
		return nil, goerror.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.RefreshTokenHash == tokenHash {
			return clone(u), nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return clone(u), nil
}

func (s *Store) CreateUser(ctx context.Context, user entity.NewUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return goerror.ErrConflict
	}
	if _, ok := s.users[user.ID]; ok {
		return goerror.ErrConflict
	}

	now := s.clock.Now()
	s.users[user.ID] = &entity.User{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byEmail[user.Email] = user.ID

	return nil
}

func (s *Store) SetRefreshToken(ctx context.Context, userID int64, tokenHash string) error {
	return s.update(ctx, userID, func(u *entity.User) error {
		u.RefreshTokenHash = tokenHash
		return nil
	})
}

func (s *Store) SwapRefreshToken(ctx context.Context, swap entity.RefreshTokenSwap) error {
	return s.update(ctx, swap.UserID, func(u *entity.User) error {
		if u.RefreshTokenHash != swap.Expected {
			return goerror.ErrConflict
		}
		u.RefreshTokenHash = swap.Next
		return nil
	})
}

func (s *Store) SetTwoFactorSecret(ctx context.Context, userID int64, sealed []byte) error {
	return s.update(ctx, userID, func(u *entity.User) error {
		u.TwoFactorSecret = slices.Clone(sealed)
		return nil
	})
}

func (s *Store) EnableTwoFactor(ctx context.Context, userID int64, sealed []byte) error {
	return s.update(ctx, userID, func(u *entity.User) error {
		if len(u.TwoFactorSecret) == 0 || !bytes.Equal(u.TwoFactorSecret, sealed) {
			return goerror.ErrNotFound
		}
		u.TwoFactorEnabled = true
		return nil
	})
}

func (s *Store) AdvanceTOTPStep(ctx context.Context, userID, step int64) (bool, error) {
	err := s.update(ctx, userID, func(u *entity.User) error {
		if step <= u.TOTPLastStep {
			return goerror.ErrConflict
		}
		u.TOTPLastStep = step
		return nil
	})
	if errors.Is(err, goerror.ErrConflict) {
		return false, nil
	}

	return err == nil, err
}

func (s *Store) update(ctx context.Context, userID int64, fn func(u *entity.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = s.clock.Now()

	return nil
}

func clone(u *entity.User) *entity.User {
	c := *u
	c.TwoFactorSecret = slices.Clone(u.TwoFactorSecret)
	return &c
}
