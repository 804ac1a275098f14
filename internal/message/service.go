package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DBService stores and reads conversation messages.
type DBService struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

// NewDBService creates a message service.
func NewDBService(log *slog.Logger, queries *sqlc.Queries) *DBService {
	if log == nil {
		log = slog.Default()
	}
	return &DBService{
		queries: queries,
		logger:  log.With(slog.String("service", "message")),
	}
}

// Persist stores one message and returns it with its assigned id. Ids are
// monotonic within a thread, so equal timestamps still order by insertion.
func (s *DBService) Persist(ctx context.Context, in PersistInput) (Message, error) {
	if in.ThreadID == "" {
		return Message{}, errors.New("thread id is required")
	}
	if in.Direction != DirectionIncoming && in.Direction != DirectionOutgoing {
		return Message{}, fmt.Errorf("unrecognized direction: %q", in.Direction)
	}
	kind := in.Kind
	if kind == "" {
		kind = KindText
	}
	row, err := s.queries.CreateConversationMessage(ctx, sqlc.CreateConversationMessageParams{
		ThreadID:      in.ThreadID,
		Channel:       string(in.Channel),
		Direction:     in.Direction,
		Kind:          kind,
		Question:      db.Text(in.Question),
		Response:      db.Text(in.Response),
		MessageSource: db.Text(in.MessageSource),
		Sender:        db.Text(in.Sender),
		EventID:       db.Text(in.EventID),
	})
	if err != nil {
		return Message{}, fmt.Errorf("persist message: %w", err)
	}
	return toMessage(row), nil
}

// ExistsByEventID reports whether a message with the provider event id is
// already stored. Messages without an event id never match.
func (s *DBService) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	exists, err := s.queries.ConversationMessageExistsByEventID(ctx, db.Text(eventID))
	if err != nil {
		return false, fmt.Errorf("check event id: %w", err)
	}
	return exists, nil
}

// ListPage returns one page of thread history. Page 1 holds the newest
// messages, but within a page messages run oldest to newest so a chat
// view can append them directly. Pages are 1-based; out-of-range pages
// return an empty slice, not an error.
func (s *DBService) ListPage(ctx context.Context, threadID string, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := s.queries.CountConversationMessages(ctx, threadID)
	if err != nil {
		return Page{}, fmt.Errorf("count messages: %w", err)
	}
	rows, err := s.queries.ListConversationMessagesPage(ctx, sqlc.ListConversationMessagesPageParams{
		ThreadID: threadID,
		Limit:    int32(pageSize),
		Offset:   int32((page - 1) * pageSize),
	})
	if err != nil {
		return Page{}, fmt.Errorf("list messages: %w", err)
	}

	// Rows come back newest first; flip them for display order.
	messages := make([]Message, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = toMessage(row)
	}
	return Page{
		Messages: messages,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(page*pageSize) < total,
	}, nil
}

// MarkRead stamps read_at on the message.
func (s *DBService) MarkRead(ctx context.Context, id int64) error {
	if err := s.queries.MarkConversationMessageRead(ctx, id); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

func toMessage(row sqlc.ConversationMessage) Message {
	return Message{
		ID:            row.ID,
		ThreadID:      row.ThreadID,
		Channel:       channel.Channel(row.Channel),
		Direction:     row.Direction,
		Kind:          row.Kind,
		Question:      db.TextValue(row.Question),
		Response:      db.TextValue(row.Response),
		MessageSource: db.TextValue(row.MessageSource),
		Sender:        db.TextValue(row.Sender),
		EventID:       db.TextValue(row.EventID),
		ReadAt:        db.TimeValue(row.ReadAt),
		CreatedAt:     db.TimeValue(row.CreatedAt),
	}
}
