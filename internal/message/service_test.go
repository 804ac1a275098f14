package message

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

func TestPersistRejectsBadInput(t *testing.T) {
	svc := NewDBService(nil, nil)

	_, err := svc.Persist(context.Background(), PersistInput{Direction: DirectionIncoming})
	require.Error(t, err)

	_, err = svc.Persist(context.Background(), PersistInput{ThreadID: "line:U1", Direction: "sideways"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized direction")
}

func TestExistsByEventIDSkipsEmptyID(t *testing.T) {
	svc := NewDBService(nil, nil)

	exists, err := svc.ExistsByEventID(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestToMessage(t *testing.T) {
	got := toMessage(sqlc.ConversationMessage{
		ID:        42,
		ThreadID:  "line:U1",
		Channel:   "line",
		Direction: DirectionIncoming,
		Kind:      KindText,
		Question:  pgtype.Text{String: "hello", Valid: true},
		EventID:   pgtype.Text{String: "evt-1", Valid: true},
	})

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, channel.Line, got.Channel)
	assert.Equal(t, "hello", got.Question)
	assert.Empty(t, got.Response)
	assert.Equal(t, "evt-1", got.EventID)
	assert.True(t, got.ReadAt.IsZero())
}
