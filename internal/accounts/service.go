// Package accounts manages staff accounts for the console.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/db"
	"github.com/relaydesk/relaydesk/internal/db/sqlc"
)

var (
	// ErrNotFound is returned when no staff account matches.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned on a wrong username or password.
	// The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Account is one staff login.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Service manages staff accounts.
type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

// NewService creates an account service.
func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "accounts")),
	}
}

// Create stores a new staff account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, username, password, email string) (Account, error) {
	if username == "" || password == "" {
		return Account{}, errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}
	row, err := s.queries.CreateStaffAccount(ctx, sqlc.CreateStaffAccountParams{
		Username:     username,
		Email:        db.Text(email),
		PasswordHash: string(hash),
	})
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("staff account created", slog.String("username", username))
	return toAccount(row), nil
}

// Authenticate verifies the username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	row, err := s.queries.GetStaffAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return toAccount(row), nil
}

// EnsureAdmin seeds the configured admin account when no staff account
// exists yet. Subsequent boots are no-ops.
func (s *Service) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		s.logger.Warn("admin credentials not configured, skipping seed")
		return nil
	}
	count, err := s.queries.CountStaffAccounts(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := s.Create(ctx, cfg.Username, cfg.Password, cfg.Email); err != nil {
		// Two instances can race the seed; the unique username decides.
		if db.IsUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func toAccount(row sqlc.StaffAccount) Account {
	return Account{
		ID:        db.UUIDString(row.ID),
		Username:  row.Username,
		Email:     db.TextValue(row.Email),
		CreatedAt: db.TimeValue(row.CreatedAt),
	}
}
