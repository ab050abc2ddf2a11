package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/authgate/internal/identity"
)

func (a *App) initModules() {
	if err := identity.New(identity.Dependency{
		DBConn:       a.dbConn,
		Goroutine:    a.goroutine,
		Router:       a.router,
		Idempotency:  a.idemp,
		Messaging:    a.messaging,
		LoginLimiter: a.loginLimiter,
		TwoFALimiter: a.twoFALimiter,
		Instrument:   a.ins,
		UID:          a.uid,
		HMAC:         a.hmac,
		Password:     a.password,
		MFAEncryptor: a.mfaEncryptor,
		Clock:        a.clock,
		Totp:         a.totp,
		Validator:    a.validator,
		Codec:        a.codec,
		CookieSecure: a.config.GetBool("auth.cookie.secure"),
		RateLimitOff: !a.config.GetBool("ratelimit.enabled"),
		RefreshTTL:   a.config.GetDay("jwt.refresh_ttl_days"),
	}); err != nil {
		slog.Error("failed to init module identity", "error", err)
		os.Exit(1)
	}
}
