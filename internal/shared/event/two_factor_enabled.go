package event

const TwoFactorEnabledDestination string = "identity.two_factor.enabled"

type TwoFactorEnabledMessage struct {
	UserID     int64 `json:"user_id,string"`
	OccurredAt int64 `json:"occurred_at"`
}
