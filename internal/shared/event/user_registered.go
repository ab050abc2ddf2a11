package event

const UserRegisteredDestination string = "identity.user.registered"

type UserRegisteredMessage struct {
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	OccurredAt int64  `json:"occurred_at"`
}
