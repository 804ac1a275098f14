// Package channel defines the customer-contact channel tokens and the
// canonical thread key format shared by every component that addresses
// conversations.
package channel

import (
	"fmt"
	"strings"
)

// Channel identifies one of the three customer-contact surfaces.
type Channel string

const (
	// Line is the closed messaging-platform channel.
	Line Channel = "line"
	// Messenger is the social-network messenger channel.
	Messenger Channel = "messenger"
	// Webchat is the embedded web-chat widget channel.
	Webchat Channel = "webchat"
)

// All lists the recognised channels in fixed priority order. The order is
// load-bearing: session resolution uses it to break last-interaction ties.
var All = []Channel{Line, Messenger, Webchat}

func (c Channel) String() string { return string(c) }

// Valid reports whether c is one of the three recognised channel tokens.
func (c Channel) Valid() bool {
	switch c {
	case Line, Messenger, Webchat:
		return true
	}
	return false
}

// Priority returns the tie-break rank of the channel; lower wins.
// Unknown channels sort last.
func (c Channel) Priority() int {
	for i, known := range All {
		if c == known {
			return i
		}
	}
	return len(All)
}

// Parse normalizes a channel token. It accepts any casing and surrounding
// whitespace but nothing else.
func Parse(raw string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unrecognized channel: %q", raw)
	}
	return c, nil
}

// ThreadID builds the canonical conversation thread key for a channel and
// its native contact id. Every producer and consumer of thread ids must go
// through this function; the format never changes shape at call sites.
func ThreadID(c Channel, nativeID string) string {
	return string(c) + ":" + nativeID
}

// SplitThreadID decomposes a thread key back into channel and native id.
func SplitThreadID(threadID string) (Channel, string, error) {
	token, nativeID, ok := strings.Cut(threadID, ":")
	if !ok || nativeID == "" {
		return "", "", fmt.Errorf("malformed thread id: %q", threadID)
	}
	c, err := Parse(token)
	if err != nil {
		return "", "", fmt.Errorf("malformed thread id: %q", threadID)
	}
	return c, nativeID, nil
}
