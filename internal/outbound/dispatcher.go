// Package outbound sends staff and system replies to customers through
// the provider APIs and records them in the conversation.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/message"
)

// ErrChannelNotLinked is returned when the target customer has no
// identity on the requested channel.
var ErrChannelNotLinked = errors.New("channel not linked to customer")

// Store is the slice of the customer service the dispatcher needs.
type Store interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
	TouchInteraction(ctx context.Context, id string, at time.Time) error
}

// ThreadEnsurer guarantees the outbound thread exists before persisting.
type ThreadEnsurer interface {
	EnsureThread(ctx context.Context, customerID string, ch channel.Channel, nativeID string) (string, error)
	Touch(ctx context.Context, threadID string, at time.Time) error
}

// MessageStore persists the outbound record.
type MessageStore interface {
	Persist(ctx context.Context, in message.PersistInput) (message.Message, error)
}

// Publisher fans the stored message out to live subscribers.
type Publisher interface {
	Publish(threadID string, data any) int
}

// SendInput is one outbound message.
type SendInput struct {
	CustomerID string
	Channel    channel.Channel
	Text       string
	Source     string
	Sender     string
}

// Dispatcher routes outbound messages to the right provider sender.
type Dispatcher struct {
	senders  map[channel.Channel]Sender
	store    Store
	threads  ThreadEnsurer
	messages MessageStore
	hub      Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates an outbound dispatcher over the given per-channel
// senders.
func NewDispatcher(log *slog.Logger, senders map[channel.Channel]Sender, store Store, threads ThreadEnsurer, messages MessageStore, hub Publisher) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		senders:  senders,
		store:    store,
		threads:  threads,
		messages: messages,
		hub:      hub,
		logger:   log.With(slog.String("service", "outbound")),
		now:      time.Now,
	}
}

// Send delivers text to the customer on the channel: provider push first,
// then persist, touch, and publish. A provider failure stores nothing, so
// the conversation never shows a reply the customer did not get.
func (d *Dispatcher) Send(ctx context.Context, in SendInput) (message.Message, error) {
	if !in.Channel.Valid() {
		return message.Message{}, fmt.Errorf("unrecognized channel: %q", in.Channel)
	}
	if in.Text == "" {
		return message.Message{}, errors.New("message text is required")
	}
	sender, ok := d.senders[in.Channel]
	if !ok {
		return message.Message{}, fmt.Errorf("no sender configured for channel %s", in.Channel)
	}

	cust, err := d.store.Get(ctx, in.CustomerID)
	if err != nil {
		return message.Message{}, err
	}
	nativeID := cust.NativeID(in.Channel)
	if nativeID == "" {
		return message.Message{}, fmt.Errorf("%w: %s", ErrChannelNotLinked, in.Channel)
	}

	if err := sender.Send(ctx, nativeID, in.Text); err != nil {
		return message.Message{}, err
	}

	threadID, err := d.threads.EnsureThread(ctx, cust.ID, in.Channel, nativeID)
	if err != nil {
		return message.Message{}, err
	}
	source := in.Source
	if source == "" {
		source = message.SourceManual
	}
	msg, err := d.messages.Persist(ctx, message.PersistInput{
		ThreadID:      threadID,
		Channel:       in.Channel,
		Direction:     message.DirectionOutgoing,
		Kind:          message.KindText,
		Response:      in.Text,
		MessageSource: source,
		Sender:        in.Sender,
	})
	if err != nil {
		return message.Message{}, err
	}

	now := d.now().UTC()
	if err := d.threads.Touch(ctx, threadID, now); err != nil {
		d.logger.Warn("touch thread failed", slog.String("error", err.Error()))
	}
	if err := d.store.TouchInteraction(ctx, cust.ID, now); err != nil {
		d.logger.Warn("touch customer failed", slog.String("error", err.Error()))
	}
	d.hub.Publish(threadID, msg)

	d.logger.Info("outbound message sent",
		slog.String("customer_id", cust.ID),
		slog.String("channel", string(in.Channel)),
		slog.String("source", source))
	return msg, nil
}
