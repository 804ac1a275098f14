// Package ingest turns provider webhook payloads into canonical events and
// runs them through the inbound pipeline: dedupe, link, persist, touch,
// publish.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/identity"
	"github.com/relaydesk/relaydesk/internal/message"
)

// Event kinds recognized by the pipeline.
const (
	EventMessage  = "message"
	EventFollow   = "follow"
	EventUnfollow = "unfollow"
)

// Event is the canonical form of one provider webhook event.
type Event struct {
	Channel     channel.Channel
	NativeID    string
	EventID     string
	Kind        string
	Text        string
	DisplayName string
	AvatarURL   string
	Email       string
	Timestamp   time.Time
}

// Result reports what the pipeline did with one event.
type Result struct {
	ThreadID string
	Message  message.Message
	Skipped  bool
}

// Linker resolves channel identities.
type Linker interface {
	Link(ctx context.Context, req identity.LinkRequest) (identity.LinkResult, error)
}

// MessageStore persists canonical messages.
type MessageStore interface {
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)
	Persist(ctx context.Context, in message.PersistInput) (message.Message, error)
}

// Toucher advances interaction watermarks and follow state.
type Toucher interface {
	TouchInteraction(ctx context.Context, customerID string, at time.Time) error
	TouchFriendInteraction(ctx context.Context, ch channel.Channel, nativeID string, at time.Time) error
	SetFriendFollowing(ctx context.Context, ch channel.Channel, nativeID string, following bool, at time.Time) error
}

// ThreadToucher advances a thread's last-message watermark.
type ThreadToucher interface {
	Touch(ctx context.Context, threadID string, at time.Time) error
}

// Publisher fans a persisted message out to live subscribers.
type Publisher interface {
	Publish(threadID string, data any) int
}

// Normalizer runs canonical events through the inbound pipeline.
type Normalizer struct {
	linker   Linker
	messages MessageStore
	store    Toucher
	threads  ThreadToucher
	hub      Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewNormalizer creates the inbound pipeline.
func NewNormalizer(log *slog.Logger, linker Linker, messages MessageStore, store Toucher, threads ThreadToucher, hub Publisher) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		linker:   linker,
		messages: messages,
		store:    store,
		threads:  threads,
		hub:      hub,
		logger:   log.With(slog.String("service", "ingest")),
		now:      time.Now,
	}
}

// Process handles one canonical event. Message events are deduplicated by
// provider event id: a replay is absorbed silently and reported as
// skipped. Persisting happens before publishing, so a subscriber never
// sees a message that is not stored.
func (n *Normalizer) Process(ctx context.Context, ev Event) (Result, error) {
	if !ev.Channel.Valid() {
		return Result{}, fmt.Errorf("unrecognized channel: %q", ev.Channel)
	}
	if ev.NativeID == "" {
		return Result{}, errors.New("event has no sender id")
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now().UTC()
	}

	switch ev.Kind {
	case EventMessage:
		return n.processMessage(ctx, ev)
	case EventFollow:
		return n.processFollow(ctx, ev)
	case EventUnfollow:
		return n.processUnfollow(ctx, ev)
	default:
		n.logger.Debug("ignoring event kind",
			slog.String("channel", string(ev.Channel)),
			slog.String("kind", ev.Kind))
		return Result{Skipped: true}, nil
	}
}

// ProcessAll runs each event through Process. One failing event does not
// stop the rest; the first error is returned after all events ran, so a
// provider retry can re-deliver the failed ones while the dedupe absorbs
// the successes.
func (n *Normalizer) ProcessAll(ctx context.Context, events []Event) error {
	var firstErr error
	for _, ev := range events {
		if _, err := n.Process(ctx, ev); err != nil {
			n.logger.Error("inbound event failed",
				slog.String("channel", string(ev.Channel)),
				slog.String("event_id", ev.EventID),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *Normalizer) processMessage(ctx context.Context, ev Event) (Result, error) {
	seen, err := n.messages.ExistsByEventID(ctx, ev.EventID)
	if err != nil {
		return Result{}, err
	}
	if seen {
		n.logger.Debug("duplicate event absorbed", slog.String("event_id", ev.EventID))
		return Result{Skipped: true}, nil
	}

	res, err := n.linker.Link(ctx, identity.LinkRequest{
		Channel:     ev.Channel,
		NativeID:    ev.NativeID,
		Email:       ev.Email,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
	})
	if err != nil {
		return Result{}, err
	}

	msg, err := n.messages.Persist(ctx, message.PersistInput{
		ThreadID:      res.ThreadID,
		Channel:       ev.Channel,
		Direction:     message.DirectionIncoming,
		Kind:          message.KindText,
		Question:      ev.Text,
		MessageSource: message.SourceWebhook,
		Sender:        ev.NativeID,
		EventID:       ev.EventID,
	})
	if err != nil {
		return Result{}, err
	}

	n.touch(ctx, res, ev)
	n.hub.Publish(res.ThreadID, msg)
	return Result{ThreadID: res.ThreadID, Message: msg}, nil
}

func (n *Normalizer) processFollow(ctx context.Context, ev Event) (Result, error) {
	res, err := n.linker.Link(ctx, identity.LinkRequest{
		Channel:     ev.Channel,
		NativeID:    ev.NativeID,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
	})
	if err != nil {
		return Result{}, err
	}
	if err := n.store.SetFriendFollowing(ctx, ev.Channel, ev.NativeID, true, ev.Timestamp); err != nil {
		return Result{}, err
	}
	n.logger.Info("friend followed",
		slog.String("channel", string(ev.Channel)),
		slog.String("customer_id", res.Customer.ID))
	return Result{ThreadID: res.ThreadID}, nil
}

// processUnfollow flips the follow flag but deletes nothing: the identity
// link and the thread history survive a block or unfollow.
func (n *Normalizer) processUnfollow(ctx context.Context, ev Event) (Result, error) {
	if err := n.store.SetFriendFollowing(ctx, ev.Channel, ev.NativeID, false, ev.Timestamp); err != nil {
		return Result{}, err
	}
	n.logger.Info("friend unfollowed",
		slog.String("channel", string(ev.Channel)),
		slog.String("native_id", ev.NativeID))
	return Result{}, nil
}

// touch advances the watermarks after a persisted message. Failures here
// are logged, not returned: the message is stored and published either
// way, and the next event repairs the watermark.
func (n *Normalizer) touch(ctx context.Context, res identity.LinkResult, ev Event) {
	if err := n.threads.Touch(ctx, res.ThreadID, ev.Timestamp); err != nil {
		n.logger.Warn("touch thread failed", slog.String("error", err.Error()))
	}
	if err := n.store.TouchFriendInteraction(ctx, ev.Channel, ev.NativeID, ev.Timestamp); err != nil {
		n.logger.Warn("touch friend failed", slog.String("error", err.Error()))
	}
	if err := n.store.TouchInteraction(ctx, res.Customer.ID, ev.Timestamp); err != nil {
		n.logger.Warn("touch customer failed", slog.String("error", err.Error()))
	}
}
