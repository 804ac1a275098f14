package customer

import (
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// Customer is the unified logical person record spanning channels. Each
// channel uid column is globally unique when present; at most one Customer
// owns a given native identifier at any time.
type Customer struct {
	ID                string    `json:"id"`
	Email             string    `json:"email,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	LineUID           string    `json:"line_uid,omitempty"`
	MessengerUID      string    `json:"messenger_uid,omitempty"`
	WebchatUID        string    `json:"webchat_uid,omitempty"`
	LastInteractionAt time.Time `json:"last_interaction_at,omitzero"`
	CreatedAt         time.Time `json:"created_at,omitzero"`
	UpdatedAt         time.Time `json:"updated_at,omitzero"`
}

// NativeID returns the customer's native identifier on the given channel,
// or "" when the channel is not linked.
func (c Customer) NativeID(ch channel.Channel) string {
	switch ch {
	case channel.Line:
		return c.LineUID
	case channel.Messenger:
		return c.MessengerUID
	case channel.Webchat:
		return c.WebchatUID
	}
	return ""
}

// Friend is the customer's relationship to one specific channel. The
// Channel field tags which variant the row represents; CustomerID may be
// empty while the friend is not yet linked to a customer.
type Friend struct {
	Channel           channel.Channel `json:"channel"`
	NativeID          string          `json:"native_id"`
	CustomerID        string          `json:"customer_id,omitempty"`
	DisplayName       string          `json:"display_name,omitempty"`
	AvatarURL         string          `json:"avatar_url,omitempty"`
	IsFollowing       bool            `json:"is_following"`
	LastInteractionAt time.Time       `json:"last_interaction_at,omitzero"`
	FollowedAt        time.Time       `json:"followed_at,omitzero"`
	UnfollowedAt      time.Time       `json:"unfollowed_at,omitzero"`
}

// CreateParams creates a new customer. Channel uids are optional; each one
// present claims that native identifier for the new customer.
type CreateParams struct {
	Email             string
	DisplayName       string
	LineUID           string
	MessengerUID      string
	WebchatUID        string
	LastInteractionAt time.Time
}

// EnsureFriendParams creates the friend row for (Channel, NativeID) if it
// does not exist yet. Profile fields only apply on first insert.
type EnsureFriendParams struct {
	Channel     channel.Channel
	NativeID    string
	CustomerID  string
	DisplayName string
	AvatarURL   string
}
