package inbound

import (
	"errors"
	"net/http"

	"github.com/shandysiswandi/authgate/internal/identity/entity"
	"github.com/shandysiswandi/authgate/internal/identity/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

const refreshCookieName = "refresh_token"

// HTTPEndpoint exposes HTTP handlers for the login state machine and account workflows.
type HTTPEndpoint struct {
	uc     uc
	cookie CookieConfig
}

// Login verifies credentials and either completes the login or asks for a second factor.
// @Summary Authenticate user
// @Description Validates credentials and returns access/refresh tokens, or a two-factor challenge for enrolled users.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return h.loginResponse(r, resp), nil
}

// Login2FA completes a pending login with a TOTP code.
// @Summary Complete two-factor login
// @Description Verifies the TOTP code of a pending login and returns access/refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Login2FARequest true "Two-factor payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid two-factor code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/2fa/validate [post]
func (h *HTTPEndpoint) Login2FA(r *router.Request) (any, error) {
	var req Login2FARequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login2FA(r.Context(), usecase.Login2FAInput{
		UserID: req.UserID,
		Code:   req.Token,
	})
	if err != nil {
		return nil, err
	}

	return h.loginResponse(r, resp), nil
}

// RefreshToken rotates the refresh token and issues a new access token.
// @Summary Refresh access token
// @Description Exchanges a refresh token, from the body or the refresh_token cookie, for a new token pair.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest false "Refresh token payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "Token refresh result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Invalid or expired refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}

	token := req.RefreshToken
	if token == "" {
		token = r.CookieValue(refreshCookieName)
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: token})
	if err != nil {
		if sessionEnded(err) {
			h.clearRefreshCookie(r)
		}
		return nil, err
	}

	h.setRefreshCookie(r, resp.RefreshToken)

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout ends the session bound to the refresh token.
// @Summary Logout
// @Description Revokes the refresh token from the body or cookie. Unknown tokens are accepted silently.
// @Tags Auth
// @Accept json
// @Param request body LogoutRequest false "Logout payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeOptionalBody(&req); err != nil {
		return nil, err
	}

	token := req.RefreshToken
	if token == "" {
		token = r.CookieValue(refreshCookieName)
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: token}); err != nil {
		return nil, err
	}

	h.clearRefreshCookie(r)

	return nil, nil
}

// TOTPSetup generates a TOTP secret for the current user.
// @Summary Setup TOTP
// @Description Generates a TOTP secret and otpauth provisioning URI. Two-factor login stays off until verified.
// @Tags Auth, Two-Factor
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=TOTPSetupResponse} "TOTP setup result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Two-factor already enabled"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/2fa/setup [post]
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.URI,
	}, nil
}

// TOTPConfirm verifies a code against the pending secret and enables two-factor login.
// @Summary Verify TOTP
// @Description Verifies the TOTP code and enables two-factor login for the current user.
// @Tags Auth, Two-Factor
// @Security BearerAuth
// @Accept json
// @Param request body TOTPConfirmRequest true "TOTP verification payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized or invalid code"
// @Failure 404 {object} router.errorResponse "Two-factor not set up"
// @Failure 409 {object} router.errorResponse "Two-factor already enabled"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/2fa/verify [post]
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{Code: req.Token}); err != nil {
		return nil, err
	}

	return nil, nil
}

// Register creates a new account.
// @Summary Sign up
// @Description Creates an account with email, password and full name.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} router.successResponse{data=RegisterResponse} "Registration result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/signup [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{UserID: resp.UserID}, nil
}

// Profile returns the current user's profile.
// @Summary Get profile
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:               resp.ID,
		Email:            resp.Email,
		FullName:         resp.FullName,
		TwoFactorEnabled: resp.TwoFactorEnabled,
	}, nil
}

func (h *HTTPEndpoint) loginResponse(r *router.Request, out *usecase.LoginOutput) LoginResponse {
	if out.TwoFactorRequired {
		return LoginResponse{TwoFactorRequired: true, UserID: out.UserID}
	}

	h.setRefreshCookie(r, out.RefreshToken)

	return LoginResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func (h *HTTPEndpoint) setRefreshCookie(r *router.Request, token string) {
	r.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     basePath,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *HTTPEndpoint) clearRefreshCookie(r *router.Request) {
	r.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     basePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionEnded reports whether a refresh failure means the cookie can never
// work again. Server faults keep the cookie so the client can retry.
func sessionEnded(err error) bool {
	if errors.Is(err, entity.ErrInvalidOrExpiredRefreshToken) {
		return true
	}

	ge, ok := goerror.As(err)
	return ok && ge.Type() == goerror.TypeValidation
}
