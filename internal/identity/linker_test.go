package identity

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
)

type fakeStore struct {
	customers map[string]*customer.Customer
	friends   map[string]*customer.Friend
	nextID    int

	// Failure injection for race paths: createErr is returned from
	// Create after onCreate runs, setUIDErr from SetChannelUID.
	createErr error
	onCreate  func()
	setUIDErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: map[string]*customer.Customer{},
		friends:   map[string]*customer.Friend{},
	}
}

func (f *fakeStore) GetByChannelUID(_ context.Context, ch channel.Channel, nativeID string) (customer.Customer, error) {
	for _, c := range f.customers {
		if c.NativeID(ch) == nativeID {
			return *c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (customer.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email && email != "" {
			return *c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, params customer.CreateParams) (customer.Customer, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return customer.Customer{}, f.createErr
	}
	f.nextID++
	c := &customer.Customer{
		ID:           string(rune('a' + f.nextID - 1)),
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		LineUID:      params.LineUID,
		MessengerUID: params.MessengerUID,
		WebchatUID:   params.WebchatUID,
	}
	f.customers[c.ID] = c
	return *c, nil
}

func (f *fakeStore) SetChannelUID(_ context.Context, id string, ch channel.Channel, nativeID string) error {
	if f.setUIDErr != nil {
		return f.setUIDErr
	}
	c := f.customers[id]
	switch ch {
	case channel.Line:
		c.LineUID = nativeID
	case channel.Messenger:
		c.MessengerUID = nativeID
	case channel.Webchat:
		c.WebchatUID = nativeID
	}
	return nil
}

func (f *fakeStore) SetEmail(_ context.Context, id, email string) error {
	f.customers[id].Email = email
	return nil
}

func (f *fakeStore) EnsureFriend(_ context.Context, params customer.EnsureFriendParams) (customer.Friend, bool, error) {
	key := channel.ThreadID(params.Channel, params.NativeID)
	if existing, ok := f.friends[key]; ok {
		return *existing, false, nil
	}
	fr := &customer.Friend{
		Channel:     params.Channel,
		NativeID:    params.NativeID,
		CustomerID:  params.CustomerID,
		DisplayName: params.DisplayName,
		IsFollowing: true,
	}
	f.friends[key] = fr
	return *fr, true, nil
}

func (f *fakeStore) AttachFriend(_ context.Context, ch channel.Channel, nativeID, customerID string) error {
	f.friends[channel.ThreadID(ch, nativeID)].CustomerID = customerID
	return nil
}

type fakeThreads struct {
	ensured []string
}

func (f *fakeThreads) EnsureThread(_ context.Context, _ string, ch channel.Channel, nativeID string) (string, error) {
	id := channel.ThreadID(ch, nativeID)
	f.ensured = append(f.ensured, id)
	return id, nil
}

func TestLinkCreatesCustomerOnFirstContact(t *testing.T) {
	store := newFakeStore()
	threads := &fakeThreads{}
	linker := NewLinker(nil, store, threads)

	res, err := linker.Link(context.Background(), LinkRequest{
		Channel:     channel.Line,
		NativeID:    "U100",
		DisplayName: "Mina",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "line:U100", res.ThreadID)
	assert.Equal(t, "U100", res.Customer.LineUID)
	assert.Equal(t, res.Customer.ID, res.Friend.CustomerID)
	assert.Equal(t, []string{"line:U100"}, threads.ensured)
}

func TestLinkReturnsExistingOwnerByUID(t *testing.T) {
	store := newFakeStore()
	existing, err := store.Create(context.Background(), customer.CreateParams{LineUID: "U100", Email: "mina@example.com"})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.Link(context.Background(), LinkRequest{Channel: channel.Line, NativeID: "U100"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, existing.ID, res.Customer.ID)
	assert.Len(t, store.customers, 1)
}

func TestLinkAdoptsUIDByEmailMatch(t *testing.T) {
	store := newFakeStore()
	existing, err := store.Create(context.Background(), customer.CreateParams{Email: "mina@example.com", WebchatUID: "w-1"})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.Link(context.Background(), LinkRequest{
		Channel:  channel.Line,
		NativeID: "U100",
		Email:    "mina@example.com",
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, existing.ID, res.Customer.ID)
	assert.Equal(t, "U100", store.customers[existing.ID].LineUID)
}

func TestLinkConflictWhenUIDAndEmailDiverge(t *testing.T) {
	store := newFakeStore()
	_, err := store.Create(context.Background(), customer.CreateParams{LineUID: "U100"})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), customer.CreateParams{Email: "mina@example.com"})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	_, err = linker.Link(context.Background(), LinkRequest{
		Channel:  channel.Line,
		NativeID: "U100",
		Email:    "mina@example.com",
	})
	assert.ErrorIs(t, err, ErrIdentityConflict)
	// No writes on conflict.
	assert.Empty(t, store.friends)
}

func TestLinkBackfillsMissingEmail(t *testing.T) {
	store := newFakeStore()
	existing, err := store.Create(context.Background(), customer.CreateParams{LineUID: "U100"})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.Link(context.Background(), LinkRequest{
		Channel:  channel.Line,
		NativeID: "U100",
		Email:    "mina@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.Customer.ID)
	assert.Equal(t, "mina@example.com", store.customers[existing.ID].Email)
}

func TestLinkAttachesOrphanFriendRow(t *testing.T) {
	store := newFakeStore()
	// Friend row exists from a follow event before any link.
	_, _, err := store.EnsureFriend(context.Background(), customer.EnsureFriendParams{
		Channel:  channel.Line,
		NativeID: "U100",
	})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.Link(context.Background(), LinkRequest{Channel: channel.Line, NativeID: "U100"})
	require.NoError(t, err)
	assert.Equal(t, res.Customer.ID, store.friends["line:U100"].CustomerID)
}

func TestLinkRecoversCreateRaceByUID(t *testing.T) {
	store := newFakeStore()
	threads := &fakeThreads{}
	// A concurrent webhook wins the insert: the unique violation fires
	// and the uid already belongs to the winner by the time we re-read.
	store.createErr = &pgconn.PgError{Code: "23505"}
	store.onCreate = func() {
		store.customers["z"] = &customer.Customer{ID: "z", LineUID: "U100"}
	}
	linker := NewLinker(nil, store, threads)

	res, err := linker.Link(context.Background(), LinkRequest{Channel: channel.Line, NativeID: "U100"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "z", res.Customer.ID)
	assert.Equal(t, "z", store.friends["line:U100"].CustomerID)
	assert.Equal(t, []string{"line:U100"}, threads.ensured)
	assert.Len(t, store.customers, 1)
}

func TestLinkRecoversCreateRaceByEmail(t *testing.T) {
	store := newFakeStore()
	// The race winner claimed the email but not the channel uid, so the
	// re-read falls through to the email match and adopts the uid.
	store.createErr = &pgconn.PgError{Code: "23505"}
	store.onCreate = func() {
		store.customers["z"] = &customer.Customer{ID: "z", Email: "mina@example.com"}
	}
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.Link(context.Background(), LinkRequest{
		Channel:  channel.Line,
		NativeID: "U100",
		Email:    "mina@example.com",
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "z", res.Customer.ID)
	assert.Equal(t, "U100", store.customers["z"].LineUID)
}

func TestLinkCreateRaceWithVanishedWinnerFails(t *testing.T) {
	store := newFakeStore()
	store.createErr = &pgconn.PgError{Code: "23505"}
	linker := NewLinker(nil, store, &fakeThreads{})

	_, err := linker.Link(context.Background(), LinkRequest{Channel: channel.Line, NativeID: "U100"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIdentityConflict)
	assert.Empty(t, store.friends)
}

func TestLinkClaimRaceSurfacesConflict(t *testing.T) {
	store := newFakeStore()
	_, err := store.Create(context.Background(), customer.CreateParams{Email: "mina@example.com"})
	require.NoError(t, err)
	// Another customer grabs the uid between our read and the claim.
	store.setUIDErr = &pgconn.PgError{Code: "23505"}
	linker := NewLinker(nil, store, &fakeThreads{})

	_, err = linker.Link(context.Background(), LinkRequest{
		Channel:  channel.Line,
		NativeID: "U100",
		Email:    "mina@example.com",
	})
	assert.ErrorIs(t, err, ErrIdentityConflict)
}

func TestLinkWebchatViaAnchorsBothChannels(t *testing.T) {
	store := newFakeStore()
	threads := &fakeThreads{}
	linker := NewLinker(nil, store, threads)

	res, err := linker.LinkWebchatVia(context.Background(), channel.Line, "U100", "mina@example.com", "", "Mina", "")
	require.NoError(t, err)
	assert.Equal(t, channel.Webchat, res.Friend.Channel)
	assert.NotEmpty(t, res.Customer.WebchatUID)
	assert.Equal(t, "U100", res.Customer.LineUID)
	assert.Contains(t, threads.ensured, "line:U100")
	assert.Contains(t, threads.ensured, channel.ThreadID(channel.Webchat, res.Customer.WebchatUID))
	// Stored record carries both uids.
	assert.Equal(t, res.Customer.WebchatUID, store.customers[res.Customer.ID].WebchatUID)
}

func TestLinkWebchatViaReusesExistingWebchatUID(t *testing.T) {
	store := newFakeStore()
	_, err := store.Create(context.Background(), customer.CreateParams{LineUID: "U100", WebchatUID: "w-7"})
	require.NoError(t, err)
	linker := NewLinker(nil, store, &fakeThreads{})

	res, err := linker.LinkWebchatVia(context.Background(), channel.Line, "U100", "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "w-7", res.Customer.WebchatUID)
	assert.Equal(t, "webchat:w-7", res.ThreadID)
}

func TestLinkWebchatViaRejectsWebchatOrigin(t *testing.T) {
	linker := NewLinker(nil, newFakeStore(), &fakeThreads{})
	_, err := linker.LinkWebchatVia(context.Background(), channel.Webchat, "w-1", "", "", "", "")
	assert.Error(t, err)
}

func TestLinkRejectsUnknownChannel(t *testing.T) {
	linker := NewLinker(nil, newFakeStore(), &fakeThreads{})
	_, err := linker.Link(context.Background(), LinkRequest{Channel: channel.Channel("fax"), NativeID: "x"})
	assert.Error(t, err)
	_, err = linker.Link(context.Background(), LinkRequest{Channel: channel.Line})
	assert.Error(t, err)
}
