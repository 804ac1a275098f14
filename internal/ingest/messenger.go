package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
)

type messengerWebhook struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Timestamp int64 `json:"timestamp"`
			Message   struct {
				MID    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// ParseMessenger converts a Messenger Platform webhook body into canonical
// events. Echoes of the page's own sends and non-text attachments are
// dropped.
func ParseMessenger(body []byte) ([]Event, error) {
	var payload messengerWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse messenger webhook: %w", err)
	}
	if payload.Object != "page" {
		return nil, fmt.Errorf("unexpected messenger webhook object: %q", payload.Object)
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, m := range entry.Messaging {
			if m.Sender.ID == "" || m.Message.Text == "" || m.Message.IsEcho {
				continue
			}
			events = append(events, Event{
				Channel:   channel.Messenger,
				NativeID:  m.Sender.ID,
				EventID:   m.Message.MID,
				Kind:      EventMessage,
				Text:      m.Message.Text,
				Timestamp: time.UnixMilli(m.Timestamp).UTC(),
			})
		}
	}
	return events, nil
}
