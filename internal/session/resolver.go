// Package session opens a chat session for a customer: which channels can
// carry the conversation and which one to speak on first.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
)

var (
	// ErrInvalidChannel is returned when the requested channel token is
	// not a channel this system knows.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrChannelNotLinked is returned when the requested channel is valid
	// but the customer has no identity on it.
	ErrChannelNotLinked = errors.New("channel not linked to customer")
)

// Store is the slice of the customer service the resolver needs.
type Store interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
	ListFriends(ctx context.Context, customerID string) ([]customer.Friend, error)
}

// ThreadEnsurer guarantees the thread for a session channel exists.
type ThreadEnsurer interface {
	EnsureThread(ctx context.Context, customerID string, ch channel.Channel, nativeID string) (string, error)
}

// Session describes one opened chat session.
type Session struct {
	CustomerID        string                     `json:"customer_id"`
	AvailableChannels []channel.Channel          `json:"available_channels"`
	DefaultChannel    channel.Channel            `json:"default_channel"`
	Threads           map[channel.Channel]string `json:"threads"`
}

// Resolver computes chat sessions from linked identities.
type Resolver struct {
	store   Store
	threads ThreadEnsurer
	logger  *slog.Logger
}

// NewResolver creates a session resolver.
func NewResolver(log *slog.Logger, store Store, threads ThreadEnsurer) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:   store,
		threads: threads,
		logger:  log.With(slog.String("service", "session")),
	}
}

// OpenSession resolves the customer's available channels and picks the
// default. An explicit requested channel wins when it is linked; otherwise
// the default is the channel with the most recent interaction, ties broken
// by channel precedence. Unfollowed channels stay available: the identity
// link outlives the follow state. Every available channel gets its thread
// ensured so the caller can subscribe immediately.
func (r *Resolver) OpenSession(ctx context.Context, customerID string, requested string) (Session, error) {
	cust, err := r.store.Get(ctx, customerID)
	if err != nil {
		return Session{}, err
	}
	friends, err := r.store.ListFriends(ctx, cust.ID)
	if err != nil {
		return Session{}, err
	}
	if len(friends) == 0 {
		return Session{}, fmt.Errorf("customer %s has no linked channels: %w", cust.ID, ErrChannelNotLinked)
	}

	byChannel := make(map[channel.Channel]customer.Friend, len(friends))
	for _, f := range friends {
		byChannel[f.Channel] = f
	}

	// Stable precedence order for the available list.
	available := make([]channel.Channel, 0, len(byChannel))
	for _, ch := range channel.All {
		if _, ok := byChannel[ch]; ok {
			available = append(available, ch)
		}
	}

	var def channel.Channel
	if requested != "" {
		ch, err := channel.Parse(requested)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %q", ErrInvalidChannel, requested)
		}
		if _, ok := byChannel[ch]; !ok {
			return Session{}, fmt.Errorf("%w: %s", ErrChannelNotLinked, ch)
		}
		def = ch
	} else {
		def = defaultChannel(available, byChannel)
	}

	threads := make(map[channel.Channel]string, len(available))
	for _, ch := range available {
		threadID, err := r.threads.EnsureThread(ctx, cust.ID, ch, byChannel[ch].NativeID)
		if err != nil {
			return Session{}, err
		}
		threads[ch] = threadID
	}

	r.logger.Debug("session opened",
		slog.String("customer_id", cust.ID),
		slog.String("default_channel", string(def)))
	return Session{
		CustomerID:        cust.ID,
		AvailableChannels: available,
		DefaultChannel:    def,
		Threads:           threads,
	}, nil
}

// defaultChannel picks the channel whose friend interacted last; on equal
// timestamps the earlier entry in the precedence order wins. available is
// already precedence-ordered, so a strict > comparison encodes the
// tie-break.
func defaultChannel(available []channel.Channel, byChannel map[channel.Channel]customer.Friend) channel.Channel {
	def := available[0]
	best := byChannel[def].LastInteractionAt
	for _, ch := range available[1:] {
		if at := byChannel[ch].LastInteractionAt; at.After(best) {
			def, best = ch, at
		}
	}
	return def
}
