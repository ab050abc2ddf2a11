package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/mfa"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// dummyPassword is hashed once and compared against when an email is unknown,
// so both login branches cost one password verification.
const dummyPassword = "authgate-no-such-user"

type UserRegisteredEvent struct {
	UserID     int64
	Email      string
	FullName   string
	OccurredAt time.Time
}

type TwoFactorEnabledEvent struct {
	UserID     int64
	OccurredAt time.Time
}

type SessionRevokedEvent struct {
	UserID     int64
	Reason     string
	OccurredAt time.Time
}

const (
	revokeReasonLogout       = "logout"
	revokeReasonInvalidToken = "invalid_token"
)

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishTwoFactorEnabled(ctx context.Context, msg TwoFactorEnabledEvent) error
	PublishSessionRevoked(ctx context.Context, msg SessionRevokedEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByRefreshToken(ctx context.Context, tokenHash string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)

	CreateUser(ctx context.Context, user entity.NewUser) error

	SetRefreshToken(ctx context.Context, userID int64, tokenHash string) error
	SwapRefreshToken(ctx context.Context, swap entity.RefreshTokenSwap) error
	SetTwoFactorSecret(ctx context.Context, userID int64, sealed []byte) error
	EnableTwoFactor(ctx context.Context, userID int64, sealed []byte) error
	AdvanceTOTPStep(ctx context.Context, userID, step int64) (bool, error)
}

type tokenCodec interface {
	IssueAccess(uid int64, email string) (string, error)
	IssueRefresh(uid int64, email string) (string, error)
	Verify(token string, class jwt.Class) (jwt.Claims, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	password      hash.Password
	hmac          hash.Hash
	idemp         idempotency.Idempotency
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	codec         tokenCodec
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	dummyHash func() (string, error)
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Password      hash.Password
	HMAC          hash.Hash
	Idempotency   idempotency.Idempotency
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Codec         tokenCodec
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		password:      dep.Password,
		hmac:          dep.HMAC,
		idemp:         dep.Idempotency,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		codec:         dep.Codec,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	s.dummyHash = sync.OnceValues(func() (string, error) {
		h, err := s.password.Hash(dummyPassword)
		return string(h), err
	})

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// authenticated returns the access-token claims placed in ctx by the router.
func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

func (s *Usecase) digest(ctx context.Context, token string) (string, error) {
	h, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return "", goerror.NewServer(err)
	}

	return string(h), nil
}

// publish hands fn to the goroutine manager. Events never fail the request.
func (s *Usecase) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	err := s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to publish security event", "event", name, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "security event dropped", "event", name, "error", err)
	}
}
