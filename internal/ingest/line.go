package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

type lineWebhook struct {
	Events []struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
		Source    struct {
			Type   string `json:"type"`
			UserID string `json:"userId"`
		} `json:"source"`
		Message struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"message"`
	} `json:"events"`
}

// ParseLine converts a LINE Messaging API webhook body into canonical
// events. Non-user sources and unsupported message types are dropped; an
// empty events array (LINE's connectivity probe) parses to zero events.
func ParseLine(body []byte) ([]Event, error) {
	var payload lineWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse line webhook: %w", err)
	}

	events := make([]Event, 0, len(payload.Events))
	for _, raw := range payload.Events {
		if raw.Source.UserID == "" {
			continue
		}
		ev := Event{
			Channel:   channel.Line,
			NativeID:  raw.Source.UserID,
			Timestamp: time.UnixMilli(raw.Timestamp).UTC(),
		}
		switch raw.Type {
		case "message":
			if raw.Message.Type != "text" {
				continue
			}
			ev.Kind = EventMessage
			ev.Text = raw.Message.Text
			ev.EventID = raw.Message.ID
		case "follow":
			ev.Kind = EventFollow
		case "unfollow":
			ev.Kind = EventUnfollow
		default:
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}
