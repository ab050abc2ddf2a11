package identity

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/authgate/internal/identity/inbound"
	"github.com/shandysiswandi/authgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/authgate/internal/identity/outbound/memory"
	"github.com/shandysiswandi/authgate/internal/identity/outbound/mq"
	"github.com/shandysiswandi/authgate/internal/identity/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/messaging"
	"github.com/shandysiswandi/authgate/internal/pkg/mfa"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

// Dependency carries everything the identity module needs. A nil DBConn
// selects the in-process memory store.
type Dependency struct {
	DBConn       *pgxpool.Pool
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	LoginLimiter ratelimit.Limiter          `validate:"required"`
	TwoFALimiter ratelimit.Limiter          `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	Password     hash.Password              `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	Codec        *jwt.Codec                 `validate:"required"`
	CookieSecure bool
	RateLimitOff bool
	RefreshTTL   time.Duration
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	ucDep := usecase.Dependency{
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Password:      dep.Password,
		HMAC:          dep.HMAC,
		Idempotency:   dep.Idempotency,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Codec:         dep.Codec,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	}
	if dep.DBConn != nil {
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		ucDep.RepoDB = memory.NewStore(dep.Clock)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc,
		inbound.Limits{
			Login:    dep.LoginLimiter,
			TwoFA:    dep.TwoFALimiter,
			Now:      dep.Clock.Now,
			Disabled: dep.RateLimitOff,
		},
		inbound.CookieConfig{Secure: dep.CookieSecure, MaxAge: dep.RefreshTTL},
	)

	return nil
}
