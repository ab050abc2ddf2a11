package inbound

import "net/http"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
	UserID            int64  `json:"user_id,omitempty,string"`
	AccessToken       string `json:"access_token,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
}

func (r LoginResponse) Message() string {
	if r.TwoFactorRequired {
		return "Two-factor code required"
	}
	return "Login successful"
}

type Login2FARequest struct {
	UserID int64  `json:"user_id,string"`
	Token  string `json:"token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TOTPSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

func (TOTPSetupResponse) Message() string {
	return "Scan the provisioning URI with an authenticator app, then verify a code to enable two-factor login"
}

type TOTPConfirmRequest struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type RegisterResponse struct {
	UserID int64 `json:"user_id,string"`
}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

func (RegisterResponse) Message() string { return "Registration successful" }

type ProfileResponse struct {
	ID               int64  `json:"id,string"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}
