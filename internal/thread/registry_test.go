package thread

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

// execErrDB fails every Exec with the configured error; reads are never
// reached in the paths under test.
type execErrDB struct {
	err error
}

func (d execErrDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, d.err
}

func (d execErrDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (d execErrDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func TestEnsureThreadRejectsBadInput(t *testing.T) {
	reg := NewRegistry(nil, nil)

	_, err := reg.EnsureThread(context.Background(), "3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b", channel.Channel("fax"), "U1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized channel")

	_, err = reg.EnsureThread(context.Background(), "3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b", channel.Line, "")
	require.Error(t, err)

	_, err = reg.EnsureThread(context.Background(), "not-a-uuid", channel.Line, "U1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid customer id")
}

func TestEnsureThreadToleratesInsertRace(t *testing.T) {
	// Two event sources racing on the same (channel, native_id) key: the
	// losing insert hits the unique index instead of the ON CONFLICT
	// clause, and the caller still gets the thread id.
	reg := NewRegistry(nil, sqlc.New(execErrDB{err: &pgconn.PgError{Code: "23505"}}))

	id, err := reg.EnsureThread(context.Background(), "3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b", channel.Line, "U1")
	require.NoError(t, err)
	assert.Equal(t, "line:U1", id)
}

func TestEnsureThreadSurfacesNonUniqueErrors(t *testing.T) {
	reg := NewRegistry(nil, sqlc.New(execErrDB{err: errors.New("connection reset")}))

	_, err := reg.EnsureThread(context.Background(), "3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b", channel.Line, "U1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestToThread(t *testing.T) {
	customerID, err := db.ParseUUID("3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b")
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := toThread(sqlc.ConversationThread{
		ID:            "line:U123",
		CustomerID:    customerID,
		Channel:       "line",
		NativeID:      "U123",
		LastMessageAt: pgtype.Timestamptz{Time: at, Valid: true},
	})

	assert.Equal(t, "line:U123", got.ID)
	assert.Equal(t, "3b9e8f6a-0d2c-4f1e-9a7b-5c4d3e2f1a0b", got.CustomerID)
	assert.Equal(t, channel.Line, got.Channel)
	assert.Equal(t, "U123", got.NativeID)
	assert.Equal(t, at, got.LastMessageAt)
	assert.True(t, got.CreatedAt.IsZero())
}
