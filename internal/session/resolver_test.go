package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
)

type fakeStore struct {
	cust    customer.Customer
	friends []customer.Friend
}

func (f *fakeStore) Get(_ context.Context, id string) (customer.Customer, error) {
	if id != f.cust.ID {
		return customer.Customer{}, customer.ErrNotFound
	}
	return f.cust, nil
}

func (f *fakeStore) ListFriends(_ context.Context, _ string) ([]customer.Friend, error) {
	return f.friends, nil
}

type fakeThreads struct{}

func (fakeThreads) EnsureThread(_ context.Context, _ string, ch channel.Channel, nativeID string) (string, error) {
	return channel.ThreadID(ch, nativeID), nil
}

func at(hour int) time.Time {
	return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
}

func resolverWith(friends ...customer.Friend) *Resolver {
	store := &fakeStore{cust: customer.Customer{ID: "c1"}, friends: friends}
	return NewResolver(nil, store, fakeThreads{})
}

func TestOpenSessionDefaultsToMostRecentChannel(t *testing.T) {
	r := resolverWith(
		customer.Friend{Channel: channel.Line, NativeID: "U1", LastInteractionAt: at(9)},
		customer.Friend{Channel: channel.Webchat, NativeID: "w1", LastInteractionAt: at(11)},
	)

	sess, err := r.OpenSession(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, channel.Webchat, sess.DefaultChannel)
	assert.Equal(t, []channel.Channel{channel.Line, channel.Webchat}, sess.AvailableChannels)
	assert.Equal(t, "line:U1", sess.Threads[channel.Line])
	assert.Equal(t, "webchat:w1", sess.Threads[channel.Webchat])
}

func TestOpenSessionTieBreaksByPrecedence(t *testing.T) {
	r := resolverWith(
		customer.Friend{Channel: channel.Webchat, NativeID: "w1", LastInteractionAt: at(10)},
		customer.Friend{Channel: channel.Messenger, NativeID: "m1", LastInteractionAt: at(10)},
		customer.Friend{Channel: channel.Line, NativeID: "U1", LastInteractionAt: at(10)},
	)

	sess, err := r.OpenSession(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Equal(t, channel.Line, sess.DefaultChannel)
}

func TestOpenSessionHonorsRequestedChannel(t *testing.T) {
	r := resolverWith(
		customer.Friend{Channel: channel.Line, NativeID: "U1", LastInteractionAt: at(12)},
		customer.Friend{Channel: channel.Webchat, NativeID: "w1", LastInteractionAt: at(8)},
	)

	sess, err := r.OpenSession(context.Background(), "c1", "webchat")
	require.NoError(t, err)
	assert.Equal(t, channel.Webchat, sess.DefaultChannel)
}

func TestOpenSessionRejectsUnknownChannelToken(t *testing.T) {
	r := resolverWith(customer.Friend{Channel: channel.Line, NativeID: "U1"})

	_, err := r.OpenSession(context.Background(), "c1", "fax")
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestOpenSessionRejectsUnlinkedChannel(t *testing.T) {
	r := resolverWith(customer.Friend{Channel: channel.Line, NativeID: "U1"})

	_, err := r.OpenSession(context.Background(), "c1", "messenger")
	assert.ErrorIs(t, err, ErrChannelNotLinked)
}

func TestOpenSessionIncludesUnfollowedChannels(t *testing.T) {
	r := resolverWith(
		customer.Friend{Channel: channel.Line, NativeID: "U1", IsFollowing: false, LastInteractionAt: at(14)},
		customer.Friend{Channel: channel.Webchat, NativeID: "w1", IsFollowing: true, LastInteractionAt: at(9)},
	)

	sess, err := r.OpenSession(context.Background(), "c1", "")
	require.NoError(t, err)
	assert.Contains(t, sess.AvailableChannels, channel.Line)
	assert.Equal(t, channel.Line, sess.DefaultChannel)
}

func TestOpenSessionFailsWithNoLinkedChannels(t *testing.T) {
	r := resolverWith()

	_, err := r.OpenSession(context.Background(), "c1", "")
	assert.ErrorIs(t, err, ErrChannelNotLinked)
}
