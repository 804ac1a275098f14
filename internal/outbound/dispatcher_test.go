package outbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/message"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, nativeID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, nativeID+"|"+text)
	return nil
}

type fakeStore struct {
	cust    customer.Customer
	touched bool
}

func (f *fakeStore) Get(_ context.Context, id string) (customer.Customer, error) {
	if id != f.cust.ID {
		return customer.Customer{}, customer.ErrNotFound
	}
	return f.cust, nil
}

func (f *fakeStore) TouchInteraction(_ context.Context, _ string, _ time.Time) error {
	f.touched = true
	return nil
}

type fakeThreads struct {
	touched []string
}

func (f *fakeThreads) EnsureThread(_ context.Context, _ string, ch channel.Channel, nativeID string) (string, error) {
	return channel.ThreadID(ch, nativeID), nil
}

func (f *fakeThreads) Touch(_ context.Context, threadID string, _ time.Time) error {
	f.touched = append(f.touched, threadID)
	return nil
}

type fakeMessages struct {
	persisted []message.PersistInput
}

func (f *fakeMessages) Persist(_ context.Context, in message.PersistInput) (message.Message, error) {
	f.persisted = append(f.persisted, in)
	return message.Message{ID: int64(len(f.persisted)), ThreadID: in.ThreadID, Response: in.Response}, nil
}

type fakeHub struct {
	published []string
}

func (f *fakeHub) Publish(threadID string, _ any) int {
	f.published = append(f.published, threadID)
	return 1
}

type fixture struct {
	d        *Dispatcher
	sender   *fakeSender
	store    *fakeStore
	threads  *fakeThreads
	messages *fakeMessages
	hub      *fakeHub
}

func newFixture(cust customer.Customer) *fixture {
	f := &fixture{
		sender:   &fakeSender{},
		store:    &fakeStore{cust: cust},
		threads:  &fakeThreads{},
		messages: &fakeMessages{},
		hub:      &fakeHub{},
	}
	f.d = NewDispatcher(nil, map[channel.Channel]Sender{
		channel.Line:    f.sender,
		channel.Webchat: WebchatSender{},
	}, f.store, f.threads, f.messages, f.hub)
	return f
}

func TestSendDeliversPersistsPublishes(t *testing.T) {
	f := newFixture(customer.Customer{ID: "c1", LineUID: "U100"})

	msg, err := f.d.Send(context.Background(), SendInput{
		CustomerID: "c1",
		Channel:    channel.Line,
		Text:       "thanks for reaching out",
		Sender:     "agent-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "line:U100", msg.ThreadID)
	assert.Equal(t, []string{"U100|thanks for reaching out"}, f.sender.sent)

	require.Len(t, f.messages.persisted, 1)
	stored := f.messages.persisted[0]
	assert.Equal(t, message.DirectionOutgoing, stored.Direction)
	assert.Equal(t, message.SourceManual, stored.MessageSource)
	assert.Equal(t, "agent-7", stored.Sender)

	assert.Equal(t, []string{"line:U100"}, f.threads.touched)
	assert.Equal(t, []string{"line:U100"}, f.hub.published)
	assert.True(t, f.store.touched)
}

func TestSendFailsWhenChannelNotLinked(t *testing.T) {
	f := newFixture(customer.Customer{ID: "c1", WebchatUID: "w-1"})

	_, err := f.d.Send(context.Background(), SendInput{
		CustomerID: "c1",
		Channel:    channel.Line,
		Text:       "hello",
	})
	assert.ErrorIs(t, err, ErrChannelNotLinked)
	assert.Empty(t, f.messages.persisted)
}

func TestSendStoresNothingOnProviderFailure(t *testing.T) {
	f := newFixture(customer.Customer{ID: "c1", LineUID: "U100"})
	f.sender.err = errors.New("provider down")

	_, err := f.d.Send(context.Background(), SendInput{
		CustomerID: "c1",
		Channel:    channel.Line,
		Text:       "hello",
	})
	require.Error(t, err)
	assert.Empty(t, f.messages.persisted)
	assert.Empty(t, f.hub.published)
}

func TestSendWebchatUsesHubOnly(t *testing.T) {
	f := newFixture(customer.Customer{ID: "c1", WebchatUID: "w-1"})

	msg, err := f.d.Send(context.Background(), SendInput{
		CustomerID: "c1",
		Channel:    channel.Webchat,
		Text:       "hi there",
		Source:     message.SourceGPT,
	})
	require.NoError(t, err)
	assert.Equal(t, "webchat:w-1", msg.ThreadID)
	assert.Equal(t, message.SourceGPT, f.messages.persisted[0].MessageSource)
	assert.Equal(t, []string{"webchat:w-1"}, f.hub.published)
}

func TestSendRejectsBadInput(t *testing.T) {
	f := newFixture(customer.Customer{ID: "c1", LineUID: "U100"})

	_, err := f.d.Send(context.Background(), SendInput{CustomerID: "c1", Channel: channel.Channel("fax"), Text: "x"})
	assert.Error(t, err)
	_, err = f.d.Send(context.Background(), SendInput{CustomerID: "c1", Channel: channel.Line})
	assert.Error(t, err)
	_, err = f.d.Send(context.Background(), SendInput{CustomerID: "c1", Channel: channel.Messenger, Text: "x"})
	assert.Error(t, err)
}
