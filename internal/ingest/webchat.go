package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/relaydesk/relaydesk/internal/channel"
)

type webchatMessage struct {
	UID         string `json:"uid"`
	Text        string `json:"text"`
	EventID     string `json:"event_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// ParseWebchat converts a widget message body into one canonical event.
func ParseWebchat(body []byte) (Event, error) {
	var payload webchatMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Event{}, fmt.Errorf("parse webchat message: %w", err)
	}
	if payload.UID == "" {
		return Event{}, errors.New("webchat message has no uid")
	}
	if payload.Text == "" {
		return Event{}, errors.New("webchat message has no text")
	}
	return Event{
		Channel:     channel.Webchat,
		NativeID:    payload.UID,
		EventID:     payload.EventID,
		Kind:        EventMessage,
		Text:        payload.Text,
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
	}, nil
}
