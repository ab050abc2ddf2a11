package event

const SessionRevokedDestination string = "identity.session.revoked"

// SessionRevokedMessage reports a cleared refresh token. Reason is "logout"
// or "invalid_token".
type SessionRevokedMessage struct {
	UserID     int64  `json:"user_id,string"`
	Reason     string `json:"reason"`
	OccurredAt int64  `json:"occurred_at"`
}
