// Package thread owns the conversation thread registry: one addressable
// thread per (channel, native id) pair, keyed by the canonical thread id.
package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

// ErrNotFound is returned when no thread row matches.
var ErrNotFound = errors.New("thread not found")

// Thread is one persistent conversation for a (channel, native id) pair.
type Thread struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Channel       channel.Channel `json:"channel"`
	NativeID      string          `json:"native_id"`
	Label         string          `json:"label,omitempty"`
	LastMessageAt time.Time       `json:"last_message_at,omitzero"`
	CreatedAt     time.Time       `json:"created_at,omitzero"`
	UpdatedAt     time.Time       `json:"updated_at,omitzero"`
}

// Registry persists conversation threads.
type Registry struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

// NewRegistry creates a thread registry.
func NewRegistry(log *slog.Logger, queries *sqlc.Queries) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		queries: queries,
		logger:  log.With(slog.String("service", "thread")),
	}
}

// EnsureThread creates the thread for (channel, native id) if it does not
// exist and returns its id. An existing row is left untouched: the insert
// is ON CONFLICT DO NOTHING, so two event sources racing on the same key
// both succeed and neither overwrites last_message_at or the label.
func (r *Registry) EnsureThread(ctx context.Context, customerID string, ch channel.Channel, nativeID string) (string, error) {
	if !ch.Valid() {
		return "", fmt.Errorf("unrecognized channel: %q", ch)
	}
	if nativeID == "" {
		return "", errors.New("native id is required")
	}
	pgCustomerID, err := db.ParseUUID(customerID)
	if err != nil {
		return "", fmt.Errorf("invalid customer id: %w", err)
	}

	threadID := channel.ThreadID(ch, nativeID)
	inserted, err := r.queries.InsertThread(ctx, sqlc.InsertThreadParams{
		ID:         threadID,
		CustomerID: pgCustomerID,
		Channel:    string(ch),
		NativeID:   nativeID,
	})
	if err != nil {
		// The (channel, native_id) unique index can still fire when two
		// inserts race; the row exists, which is all the caller needs.
		if !db.IsUniqueViolation(err) {
			return "", fmt.Errorf("ensure thread %s: %w", threadID, err)
		}
	}
	if inserted > 0 {
		r.logger.Info("thread created", slog.String("thread_id", threadID))
	}
	return threadID, nil
}

// Get returns the thread by id.
func (r *Registry) Get(ctx context.Context, threadID string) (Thread, error) {
	row, err := r.queries.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Thread{}, ErrNotFound
		}
		return Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return toThread(row), nil
}

// ListByCustomer returns every thread owned by the customer.
func (r *Registry) ListByCustomer(ctx context.Context, customerID string) ([]Thread, error) {
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	rows, err := r.queries.ListThreadsByCustomer(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	threads := make([]Thread, 0, len(rows))
	for _, row := range rows {
		threads = append(threads, toThread(row))
	}
	return threads, nil
}

// Touch advances last_message_at to at. Older values are no-ops: the
// guard keeps the watermark monotonic regardless of delivery order.
func (r *Registry) Touch(ctx context.Context, threadID string, at time.Time) error {
	if err := r.queries.TouchThread(ctx, sqlc.TouchThreadParams{
		ID:            threadID,
		LastMessageAt: db.Timestamptz(at),
	}); err != nil {
		return fmt.Errorf("touch thread: %w", err)
	}
	return nil
}

func toThread(row sqlc.ConversationThread) Thread {
	return Thread{
		ID:            row.ID,
		CustomerID:    db.UUIDString(row.CustomerID),
		Channel:       channel.Channel(row.Channel),
		NativeID:      row.NativeID,
		Label:         db.TextValue(row.Label),
		LastMessageAt: db.TimeValue(row.LastMessageAt),
		CreatedAt:     db.TimeValue(row.CreatedAt),
		UpdatedAt:     db.TimeValue(row.UpdatedAt),
	}
}
