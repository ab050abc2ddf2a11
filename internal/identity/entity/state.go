package entity

// LoginState is the position of a single authentication attempt. It is
// never persisted.
type LoginState int8

const (
	// LoginStateCredentialsPending mean the attempt has not presented a password yet.
	LoginStateCredentialsPending LoginState = 0

	// LoginStateTwoFactorPending mean the password matched and a TOTP code is required.
	LoginStateTwoFactorPending LoginState = 1

	// LoginStateAuthenticated mean tokens were issued.
	LoginStateAuthenticated LoginState = 2

	// LoginStateRejected mean the attempt failed and must restart.
	LoginStateRejected LoginState = 3
)

func (ls LoginState) String() string {
	switch ls {
	case LoginStateTwoFactorPending:
		return "TwoFactorPending"
	case LoginStateAuthenticated:
		return "Authenticated"
	case LoginStateRejected:
		return "Rejected"
	default:
		return "CredentialsPending"
	}
}
