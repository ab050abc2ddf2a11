package mfa

// Purpose identifies what a ciphertext protects.
type Purpose string

// PurposeTOTPSeed scopes encryption to TOTP shared secrets.
const PurposeTOTPSeed Purpose = "totp_seed"

// Scope binds a ciphertext to its owner and purpose via GCM additional data.
type Scope struct {
	UserID  int64
	Purpose Purpose
}

// TOTPSeed returns the scope of userID's TOTP secret.
func TOTPSeed(userID int64) Scope {
	return Scope{UserID: userID, Purpose: PurposeTOTPSeed}
}
