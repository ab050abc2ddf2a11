package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/idempotency"
)

type RegisterInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,password"`
	FullName string `validate:"required,min=2,max=100"`
}

type RegisterOutput struct {
	UserID int64
}

const (
	signupLockDuration = 30 * time.Second
	signupCompletedTTL = 10 * time.Minute
)

func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	key, err := s.signupKey(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if !s.acquireSignup(ctx, key) {
		slog.WarnContext(ctx, "signup for email already in flight or done", "email", in.Email)
		return nil, errEmailAlreadyRegistered
	}

	out, err := s.createUser(ctx, in)
	if err != nil {
		if relErr := s.idemp.Release(ctx, key); relErr != nil {
			slog.WarnContext(ctx, "failed to release signup key", "error", relErr)
		}
		return nil, err
	}

	if err := s.idemp.MarkCompleted(ctx, key, signupCompletedTTL); err != nil {
		slog.WarnContext(ctx, "failed to mark signup completed", "error", err)
	}

	return out, nil
}

func (s *Usecase) createUser(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	passHash, err := s.password.Hash(in.Password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		slog.WarnContext(ctx, "password too long for the hasher", "email", in.Email)
		return nil, goerror.NewInvalidInput(nil, "password", "password is too long")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	user := entity.NewUser{
		ID:           s.uid.Generate(),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(passHash),
	}

	err = s.repoDB.CreateUser(ctx, user)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email already registered", "email", in.Email)
		return nil, errEmailAlreadyRegistered
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	ev := UserRegisteredEvent{
		UserID:     user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		OccurredAt: s.clock.Now(),
	}
	s.publish(ctx, "user_registered", func(ctx context.Context) error {
		return s.repoMessaging.PublishUserRegistered(ctx, ev)
	})

	return &RegisterOutput{UserID: user.ID}, nil
}

func (s *Usecase) signupKey(ctx context.Context, email string) (string, error) {
	h, err := s.hmac.Hash(email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash signup email", "error", err)
		return "", goerror.NewServer(err)
	}

	return "signup:" + string(h), nil
}

// acquireSignup reports whether this request owns the signup key. A tracker
// outage lets the request through; the unique email index still holds.
func (s *Usecase) acquireSignup(ctx context.Context, key string) bool {
	state, err := s.idemp.Acquire(ctx, key, signupLockDuration)
	if err != nil {
		slog.WarnContext(ctx, "signup idempotency unavailable", "error", err)
		return true
	}

	return state == idempotency.StateNone
}
