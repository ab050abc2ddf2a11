package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/authgate/internal/identity/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

const basePath = "/api/v1/auth"

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Login2FA(ctx context.Context, in usecase.Login2FAInput) (*usecase.LoginOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error

	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

// Limits groups the attempt limiters guarding the unauthenticated steps.
type Limits struct {
	Login    ratelimit.Limiter
	TwoFA    ratelimit.Limiter
	Now      func() time.Time
	Disabled bool
}

// CookieConfig shapes the refresh token cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, lim Limits, cookie CookieConfig) {
	end := &HTTPEndpoint{uc: uc, cookie: cookie}

	var loginMws, twoFAMws []router.Middleware
	if !lim.Disabled {
		loginMws = append(loginMws, router.RateLimit(lim.Login, router.KeyByIP("login"), lim.Now))
		twoFAMws = append(twoFAMws, router.RateLimit(lim.TwoFA, keyByPendingUser("2fa"), lim.Now))
	}

	for _, p := range []string{"/login", "/2fa/validate", "/refresh", "/logout", "/signup"} {
		r.Public(http.MethodPost, basePath+p)
	}

	// Login state machine
	r.POST(basePath+"/login", end.Login, loginMws...)
	r.POST(basePath+"/2fa/validate", end.Login2FA, twoFAMws...)
	r.POST(basePath+"/refresh", end.RefreshToken)
	r.POST(basePath+"/logout", end.Logout)

	// Two-factor enrollment (need authenticated)
	r.POST(basePath+"/2fa/setup", end.TOTPSetup)
	r.POST(basePath+"/2fa/verify", end.TOTPConfirm)

	// Account
	r.POST(basePath+"/signup", end.Register)
	r.GET(basePath+"/profile", end.Profile)
}

// keyByPendingUser keys second-step attempts by the user id in the body,
// so spreading guesses over many addresses still hits one budget.
// The body is restored for the handler.
func keyByPendingUser(prefix string) router.KeyFunc {
	return func(r *http.Request) string {
		if r.Body == nil || r.Body == http.NoBody {
			return ""
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var body struct {
			UserID json.Number `json:"user_id"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return ""
		}

		id, err := strconv.ParseInt(body.UserID.String(), 10, 64)
		if err != nil || id <= 0 {
			return ""
		}

		return prefix + ":" + strconv.FormatInt(id, 10)
	}
}
