// Package customer is the identity store: one Customer record per logical
// person plus one Friend row per (customer, channel) relationship.
package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/db"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

// ErrNotFound is returned when no customer or friend row matches.
var ErrNotFound = errors.New("customer not found")

// Service provides customer and friend persistence.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

// NewService creates a customer service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "customer")),
	}
}

// Get returns the customer by id. An id that does not parse cannot
// match any row, so it reports ErrNotFound rather than a parse error.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Customer{}, ErrNotFound
	}
	row, err := s.queries.GetCustomer(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return toCustomer(row), nil
}

// GetByEmail returns the customer owning the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (Customer, error) {
	row, err := s.queries.GetCustomerByEmail(ctx, db.Text(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer by email: %w", err)
	}
	return toCustomer(row), nil
}

// GetByChannelUID returns the customer owning the native identifier on the
// given channel.
func (s *Service) GetByChannelUID(ctx context.Context, ch channel.Channel, nativeID string) (Customer, error) {
	var (
		row sqlc.Customer
		err error
	)
	switch ch {
	case channel.Line:
		row, err = s.queries.GetCustomerByLineUID(ctx, db.Text(nativeID))
	case channel.Messenger:
		row, err = s.queries.GetCustomerByMessengerUID(ctx, db.Text(nativeID))
	case channel.Webchat:
		row, err = s.queries.GetCustomerByWebchatUID(ctx, db.Text(nativeID))
	default:
		return Customer{}, fmt.Errorf("unrecognized channel: %q", ch)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer by %s uid: %w", ch, err)
	}
	return toCustomer(row), nil
}

// Create inserts a new customer. A unique violation on any channel uid or
// the email column surfaces unwrapped pg metadata so callers can detect
// the race with db.IsUniqueViolation and re-read.
func (s *Service) Create(ctx context.Context, params CreateParams) (Customer, error) {
	row, err := s.queries.CreateCustomer(ctx, sqlc.CreateCustomerParams{
		Email:             db.Text(params.Email),
		DisplayName:       db.Text(params.DisplayName),
		LineUid:           db.Text(params.LineUID),
		MessengerUid:      db.Text(params.MessengerUID),
		WebchatUid:        db.Text(params.WebchatUID),
		LastInteractionAt: db.Timestamptz(params.LastInteractionAt),
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.logger.Info("customer created", slog.String("customer_id", db.UUIDString(row.ID)))
	return toCustomer(row), nil
}

// SetChannelUID claims the native identifier on the given channel for the
// customer. The uniqueness constraint rejects a claim on an identifier
// another customer already owns.
func (s *Service) SetChannelUID(ctx context.Context, id string, ch channel.Channel, nativeID string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	switch ch {
	case channel.Line:
		err = s.queries.SetCustomerLineUID(ctx, sqlc.SetCustomerLineUIDParams{ID: pgID, LineUid: db.Text(nativeID)})
	case channel.Messenger:
		err = s.queries.SetCustomerMessengerUID(ctx, sqlc.SetCustomerMessengerUIDParams{ID: pgID, MessengerUid: db.Text(nativeID)})
	case channel.Webchat:
		err = s.queries.SetCustomerWebchatUID(ctx, sqlc.SetCustomerWebchatUIDParams{ID: pgID, WebchatUid: db.Text(nativeID)})
	default:
		return fmt.Errorf("unrecognized channel: %q", ch)
	}
	if err != nil {
		return fmt.Errorf("set %s uid: %w", ch, err)
	}
	return nil
}

// SetEmail backfills the customer's email.
func (s *Service) SetEmail(ctx context.Context, id, email string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	if err := s.queries.SetCustomerEmail(ctx, sqlc.SetCustomerEmailParams{ID: pgID, Email: db.Text(email)}); err != nil {
		return fmt.Errorf("set email: %w", err)
	}
	return nil
}

// TouchInteraction advances last_interaction_at; older timestamps are
// no-ops so out-of-order webhook retries cannot move the watermark back.
func (s *Service) TouchInteraction(ctx context.Context, id string, at time.Time) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	if err := s.queries.TouchCustomerInteraction(ctx, sqlc.TouchCustomerInteractionParams{
		ID:                pgID,
		LastInteractionAt: db.Timestamptz(at),
	}); err != nil {
		return fmt.Errorf("touch customer interaction: %w", err)
	}
	return nil
}

// EnsureFriend upserts the friend row for (channel, native id). When the
// row already exists the insert is a no-op and the stored row wins; the
// bool reports whether this call created it. Safe under concurrent
// invocation: a losing insert falls back to reading the existing row.
func (s *Service) EnsureFriend(ctx context.Context, params EnsureFriendParams) (Friend, bool, error) {
	var pgCustomerID pgtype.UUID
	if params.CustomerID != "" {
		parsed, err := db.ParseUUID(params.CustomerID)
		if err != nil {
			return Friend{}, false, fmt.Errorf("invalid customer id: %w", err)
		}
		pgCustomerID = parsed
	}

	now := time.Now().UTC()
	inserted, err := s.queries.InsertChannelFriend(ctx, sqlc.InsertChannelFriendParams{
		Channel:     string(params.Channel),
		NativeID:    params.NativeID,
		CustomerID:  pgCustomerID,
		DisplayName: db.Text(params.DisplayName),
		AvatarUrl:   db.Text(params.AvatarURL),
		IsFollowing: true,
		FollowedAt:  db.Timestamptz(now),
	})
	if err != nil && !db.IsUniqueViolation(err) {
		return Friend{}, false, fmt.Errorf("insert friend: %w", err)
	}

	friend, err := s.GetFriend(ctx, params.Channel, params.NativeID)
	if err != nil {
		return Friend{}, false, err
	}
	return friend, inserted > 0, nil
}

// GetFriend returns the friend row for (channel, native id).
func (s *Service) GetFriend(ctx context.Context, ch channel.Channel, nativeID string) (Friend, error) {
	row, err := s.queries.GetChannelFriend(ctx, sqlc.GetChannelFriendParams{
		Channel:  string(ch),
		NativeID: nativeID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Friend{}, ErrNotFound
		}
		return Friend{}, fmt.Errorf("get friend: %w", err)
	}
	return toFriend(row), nil
}

// ListFriends returns every friend row linked to the customer, one per
// channel at most.
func (s *Service) ListFriends(ctx context.Context, customerID string) ([]Friend, error) {
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := s.queries.ListChannelFriendsByCustomer(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	friends := make([]Friend, 0, len(rows))
	for _, row := range rows {
		friends = append(friends, toFriend(row))
	}
	return friends, nil
}

// AttachFriend links an existing friend row to a customer.
func (s *Service) AttachFriend(ctx context.Context, ch channel.Channel, nativeID, customerID string) error {
	pgID, err := db.ParseUUID(customerID)
	if err != nil {
		return fmt.Errorf("invalid customer id: %w", err)
	}
	if err := s.queries.AttachChannelFriend(ctx, sqlc.AttachChannelFriendParams{
		Channel:    string(ch),
		NativeID:   nativeID,
		CustomerID: pgID,
	}); err != nil {
		return fmt.Errorf("attach friend: %w", err)
	}
	return nil
}

// SetFriendFollowing toggles the follow state. Following stamps
// followed_at, refreshing it on every re-follow; unfollowing stamps
// unfollowed_at. Friend rows are never deleted on unfollow.
func (s *Service) SetFriendFollowing(ctx context.Context, ch channel.Channel, nativeID string, following bool, at time.Time) error {
	params := sqlc.SetChannelFriendFollowingParams{
		Channel:     string(ch),
		NativeID:    nativeID,
		IsFollowing: following,
	}
	if following {
		params.FollowedAt = db.Timestamptz(at)
	} else {
		params.UnfollowedAt = db.Timestamptz(at)
	}
	if err := s.queries.SetChannelFriendFollowing(ctx, params); err != nil {
		return fmt.Errorf("set friend following: %w", err)
	}
	return nil
}

// UpdateFriendProfile refreshes display name and avatar when the provider
// reports them; empty fields leave the stored value untouched.
func (s *Service) UpdateFriendProfile(ctx context.Context, ch channel.Channel, nativeID, displayName, avatarURL string) error {
	if err := s.queries.UpdateChannelFriendProfile(ctx, sqlc.UpdateChannelFriendProfileParams{
		Channel:     string(ch),
		NativeID:    nativeID,
		DisplayName: db.Text(displayName),
		AvatarUrl:   db.Text(avatarURL),
	}); err != nil {
		return fmt.Errorf("update friend profile: %w", err)
	}
	return nil
}

// TouchFriendInteraction advances the friend's last_interaction_at with
// the same monotonic guard as TouchInteraction.
func (s *Service) TouchFriendInteraction(ctx context.Context, ch channel.Channel, nativeID string, at time.Time) error {
	if err := s.queries.TouchChannelFriendInteraction(ctx, sqlc.TouchChannelFriendInteractionParams{
		Channel:           string(ch),
		NativeID:          nativeID,
		LastInteractionAt: db.Timestamptz(at),
	}); err != nil {
		return fmt.Errorf("touch friend interaction: %w", err)
	}
	return nil
}

func toCustomer(row sqlc.Customer) Customer {
	return Customer{
		ID:                db.UUIDString(row.ID),
		Email:             db.TextValue(row.Email),
		DisplayName:       db.TextValue(row.DisplayName),
		LineUID:           db.TextValue(row.LineUid),
		MessengerUID:      db.TextValue(row.MessengerUid),
		WebchatUID:        db.TextValue(row.WebchatUid),
		LastInteractionAt: db.TimeValue(row.LastInteractionAt),
		CreatedAt:         db.TimeValue(row.CreatedAt),
		UpdatedAt:         db.TimeValue(row.UpdatedAt),
	}
}

func toFriend(row sqlc.ChannelFriend) Friend {
	return Friend{
		Channel:           channel.Channel(row.Channel),
		NativeID:          row.NativeID,
		CustomerID:        db.UUIDString(row.CustomerID),
		DisplayName:       db.TextValue(row.DisplayName),
		AvatarURL:         db.TextValue(row.AvatarUrl),
		IsFollowing:       row.IsFollowing,
		LastInteractionAt: db.TimeValue(row.LastInteractionAt),
		FollowedAt:        db.TimeValue(row.FollowedAt),
		UnfollowedAt:      db.TimeValue(row.UnfollowedAt),
	}
}
