// Package message persists canonical conversation messages and serves
// paged history.
package message

import (
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

// Direction of a message relative to the customer.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Kind of message content.
const (
	KindText   = "text"
	KindImage  = "image"
	KindSystem = "system"
)

// Source of a message: which subsystem produced it.
const (
	SourceWebhook   = "webhook"
	SourceManual    = "manual"
	SourceGPT       = "gpt"
	SourceKeyword   = "keyword"
	SourceWelcome   = "welcome"
	SourceBroadcast = "broadcast"
)

// Message is the canonical persisted form of one conversation turn. The
// JSON shape doubles as the real-time delivery payload.
type Message struct {
	ID            int64           `json:"id"`
	ThreadID      string          `json:"thread_id"`
	Channel       channel.Channel `json:"channel"`
	Direction     string          `json:"direction"`
	Kind          string          `json:"kind"`
	Question      string          `json:"question,omitempty"`
	Response      string          `json:"response,omitempty"`
	MessageSource string          `json:"message_source,omitempty"`
	Sender        string          `json:"sender,omitempty"`
	EventID       string          `json:"event_id,omitempty"`
	ReadAt        time.Time       `json:"read_at,omitzero"`
	CreatedAt     time.Time       `json:"created_at,omitzero"`
}

// PersistInput is one message to store.
type PersistInput struct {
	ThreadID      string
	Channel       channel.Channel
	Direction     string
	Kind          string
	Question      string
	Response      string
	MessageSource string
	Sender        string
	EventID       string
}

// Page is one slice of thread history, newest first.
type Page struct {
	Messages []Message `json:"messages"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasMore  bool      `json:"has_more"`
}
