// Package identity resolves an inbound channel identity to exactly one
// customer record, creating or merging records as needed.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/db"
)

// ErrIdentityConflict is returned when the channel identifier and the
// email resolve to two different customers. Merging records is a manual
// operation; the linker never guesses which one wins.
var ErrIdentityConflict = errors.New("identity conflict: channel uid and email belong to different customers")

// Store is the slice of the customer service the linker needs.
type Store interface {
	GetByChannelUID(ctx context.Context, ch channel.Channel, nativeID string) (customer.Customer, error)
	GetByEmail(ctx context.Context, email string) (customer.Customer, error)
	Create(ctx context.Context, params customer.CreateParams) (customer.Customer, error)
	SetChannelUID(ctx context.Context, id string, ch channel.Channel, nativeID string) error
	SetEmail(ctx context.Context, id, email string) error
	EnsureFriend(ctx context.Context, params customer.EnsureFriendParams) (customer.Friend, bool, error)
	AttachFriend(ctx context.Context, ch channel.Channel, nativeID, customerID string) error
}

// ThreadEnsurer creates the conversation thread for a linked identity.
type ThreadEnsurer interface {
	EnsureThread(ctx context.Context, customerID string, ch channel.Channel, nativeID string) (string, error)
}

// LinkRequest identifies one person on one channel.
type LinkRequest struct {
	Channel     channel.Channel
	NativeID    string
	Email       string
	DisplayName string
	AvatarURL   string
}

// LinkResult is the resolved identity plus the thread it converses on.
type LinkResult struct {
	Customer customer.Customer
	Friend   customer.Friend
	ThreadID string
	Created  bool
}

// Linker binds channel identities to customer records.
type Linker struct {
	store   Store
	threads ThreadEnsurer
	logger  *slog.Logger
}

// NewLinker creates an identity linker.
func NewLinker(log *slog.Logger, store Store, threads ThreadEnsurer) *Linker {
	if log == nil {
		log = slog.Default()
	}
	return &Linker{
		store:   store,
		threads: threads,
		logger:  log.With(slog.String("service", "identity")),
	}
}

// Link resolves the request to a customer, in order: the customer already
// owning the channel uid, then the customer owning the email, then a new
// record. When the uid and the email point at two different existing
// customers the call fails with ErrIdentityConflict and writes nothing.
// On success the friend row and the conversation thread exist.
func (l *Linker) Link(ctx context.Context, req LinkRequest) (LinkResult, error) {
	if !req.Channel.Valid() {
		return LinkResult{}, fmt.Errorf("unrecognized channel: %q", req.Channel)
	}
	if req.NativeID == "" {
		return LinkResult{}, errors.New("native id is required")
	}

	cust, created, err := l.resolve(ctx, req)
	if err != nil {
		return LinkResult{}, err
	}

	friend, err := l.materialize(ctx, cust, req.Channel, req.NativeID, req.DisplayName, req.AvatarURL)
	if err != nil {
		return LinkResult{}, err
	}
	threadID, err := l.threads.EnsureThread(ctx, cust.ID, req.Channel, req.NativeID)
	if err != nil {
		return LinkResult{}, err
	}

	return LinkResult{Customer: cust, Friend: friend, ThreadID: threadID, Created: created}, nil
}

// LinkWebchatVia handles a webchat visitor signing in with a messaging
// provider account: the origin channel identity anchors the customer, and
// the same customer is additionally claimed on the webchat channel. An
// empty webchatUID mints a fresh one. Both channels end up with a friend
// row and a thread; the returned result describes the webchat side.
func (l *Linker) LinkWebchatVia(ctx context.Context, origin channel.Channel, originUID, email, webchatUID, displayName, avatarURL string) (LinkResult, error) {
	if origin == channel.Webchat {
		return LinkResult{}, errors.New("origin channel must be a messaging provider")
	}

	res, err := l.Link(ctx, LinkRequest{
		Channel:     origin,
		NativeID:    originUID,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	})
	if err != nil {
		return LinkResult{}, err
	}
	cust := res.Customer

	if webchatUID == "" {
		webchatUID = cust.WebchatUID
	}
	if webchatUID == "" {
		webchatUID = uuid.NewString()
	}
	if cust.WebchatUID != webchatUID {
		if cust.WebchatUID != "" {
			return LinkResult{}, ErrIdentityConflict
		}
		if err := l.claimUID(ctx, &cust, channel.Webchat, webchatUID); err != nil {
			return LinkResult{}, err
		}
	}

	friend, err := l.materialize(ctx, cust, channel.Webchat, webchatUID, displayName, avatarURL)
	if err != nil {
		return LinkResult{}, err
	}
	threadID, err := l.threads.EnsureThread(ctx, cust.ID, channel.Webchat, webchatUID)
	if err != nil {
		return LinkResult{}, err
	}

	l.logger.Info("webchat identity linked",
		slog.String("customer_id", cust.ID),
		slog.String("origin", string(origin)))
	return LinkResult{Customer: cust, Friend: friend, ThreadID: threadID, Created: res.Created}, nil
}

func (l *Linker) resolve(ctx context.Context, req LinkRequest) (customer.Customer, bool, error) {
	byUID, err := l.store.GetByChannelUID(ctx, req.Channel, req.NativeID)
	switch {
	case err == nil:
		// Existing owner of the uid always wins; an email pointing at a
		// different record is a conflict, not a merge.
		if req.Email != "" {
			byEmail, eerr := l.store.GetByEmail(ctx, req.Email)
			if eerr == nil && byEmail.ID != byUID.ID {
				return customer.Customer{}, false, ErrIdentityConflict
			}
			if eerr != nil && !errors.Is(eerr, customer.ErrNotFound) {
				return customer.Customer{}, false, eerr
			}
			if eerr != nil && byUID.Email == "" {
				if serr := l.store.SetEmail(ctx, byUID.ID, req.Email); serr != nil {
					return customer.Customer{}, false, serr
				}
				byUID.Email = req.Email
			}
		}
		return byUID, false, nil
	case !errors.Is(err, customer.ErrNotFound):
		return customer.Customer{}, false, err
	}

	if req.Email != "" {
		byEmail, err := l.store.GetByEmail(ctx, req.Email)
		switch {
		case err == nil:
			// Email match adopts the channel uid onto the existing record.
			cust := byEmail
			if cerr := l.claimUID(ctx, &cust, req.Channel, req.NativeID); cerr != nil {
				return customer.Customer{}, false, cerr
			}
			return cust, false, nil
		case !errors.Is(err, customer.ErrNotFound):
			return customer.Customer{}, false, err
		}
	}

	params := customer.CreateParams{
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		LastInteractionAt: time.Now().UTC(),
	}
	switch req.Channel {
	case channel.Line:
		params.LineUID = req.NativeID
	case channel.Messenger:
		params.MessengerUID = req.NativeID
	case channel.Webchat:
		params.WebchatUID = req.NativeID
	}
	created, err := l.store.Create(ctx, params)
	if err != nil {
		// Lost a create race: some concurrent webhook claimed the uid or
		// email first. Re-resolve against the winner.
		if db.IsUniqueViolation(err) {
			return l.recoverRace(ctx, req)
		}
		return customer.Customer{}, false, err
	}
	l.logger.Info("customer created from channel identity",
		slog.String("customer_id", created.ID),
		slog.String("channel", string(req.Channel)))
	return created, true, nil
}

func (l *Linker) recoverRace(ctx context.Context, req LinkRequest) (customer.Customer, bool, error) {
	cust, err := l.store.GetByChannelUID(ctx, req.Channel, req.NativeID)
	if err == nil {
		return cust, false, nil
	}
	if !errors.Is(err, customer.ErrNotFound) {
		return customer.Customer{}, false, err
	}
	if req.Email != "" {
		cust, err = l.store.GetByEmail(ctx, req.Email)
		if err == nil {
			if cerr := l.claimUID(ctx, &cust, req.Channel, req.NativeID); cerr != nil {
				return customer.Customer{}, false, cerr
			}
			return cust, false, nil
		}
		if !errors.Is(err, customer.ErrNotFound) {
			return customer.Customer{}, false, err
		}
	}
	return customer.Customer{}, false, fmt.Errorf("resolve %s identity %s: lost create race and owner vanished", req.Channel, req.NativeID)
}

func (l *Linker) claimUID(ctx context.Context, cust *customer.Customer, ch channel.Channel, nativeID string) error {
	current := cust.NativeID(ch)
	if current == nativeID {
		return nil
	}
	if current != "" {
		return ErrIdentityConflict
	}
	if err := l.store.SetChannelUID(ctx, cust.ID, ch, nativeID); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrIdentityConflict
		}
		return err
	}
	switch ch {
	case channel.Line:
		cust.LineUID = nativeID
	case channel.Messenger:
		cust.MessengerUID = nativeID
	case channel.Webchat:
		cust.WebchatUID = nativeID
	}
	return nil
}

// materialize guarantees the friend row exists and points at the resolved
// customer.
func (l *Linker) materialize(ctx context.Context, cust customer.Customer, ch channel.Channel, nativeID, displayName, avatarURL string) (customer.Friend, error) {
	friend, _, err := l.store.EnsureFriend(ctx, customer.EnsureFriendParams{
		Channel:     ch,
		NativeID:    nativeID,
		CustomerID:  cust.ID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	})
	if err != nil {
		return customer.Friend{}, err
	}
	if friend.CustomerID != cust.ID {
		// Friend row predates the link (e.g. followed before signing in).
		if err := l.store.AttachFriend(ctx, ch, nativeID, cust.ID); err != nil {
			return customer.Friend{}, err
		}
		friend.CustomerID = cust.ID
	}
	return friend, nil
}
