package events

import "time"

// Event types carried on the wellness topics.
const (
	TypeStoneUpdate       = "stone-update"
	TypeChallengeJoined   = "challenge-joined"
	TypeChallengeActivity = "challenge-activity"
	TypeNotification      = "notification"
	TypeSessionStarted    = "session-started"
	TypeSessionReset      = "session-reset"
	TypeFriendStatus      = "friend-status"
)

// Envelope wraps every payload published on the in-process broker and
// forwarded to websocket subscribers.
type Envelope struct {
	Topic      string    `json:"topic"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}

// FriendStatusChanged is emitted by the social simulator.
type FriendStatusChanged struct {
	FriendID string `json:"friendId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// SessionStarted is emitted after a successful login.
type SessionStarted struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}
