// Package repository defines data access interfaces for Atlas Accounts.
// These interfaces abstract database operations, allowing for different
// implementations (MongoDB, SQLite, in-memory for testing) while keeping the
// service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/atlas-accounts/internal/domain"
)

// AccountRepository defines the interface for account data access.
//
// Token mutations (AddToken, RemoveToken, ClearTokens) and avatar mutations
// are single-document updates; whatever atomicity the backend offers at
// document granularity is the only serialization relied upon.
type AccountRepository interface {
	// Create persists a new account. Returns ErrDuplicate if the normalized
	// email is already registered.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail retrieves an account by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Update persists changed identity fields (name, email, secret hash,
	// age, updated-at). Tokens and avatar are not touched by Update.
	Update(ctx context.Context, account *domain.Account) error

	// Delete removes the account and, with it, every token it holds.
	Delete(ctx context.Context, id string) error

	// List returns accounts with pagination, ordered by creation time.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.Account], error)

	// ExistsByEmail checks if an account with the normalized email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// AddToken appends a session token to the account's valid set.
	AddToken(ctx context.Context, id, token string) error

	// RemoveToken removes exactly the matching token from the valid set.
	RemoveToken(ctx context.Context, id, token string) error

	// ClearTokens empties the account's valid token set.
	ClearTokens(ctx context.Context, id string) error

	// SetAvatar stores the avatar bytes on the account document.
	SetAvatar(ctx context.Context, id string, avatar []byte) error

	// ClearAvatar removes the avatar from the account document.
	ClearAvatar(ctx context.Context, id string) error

	// GetAvatar retrieves the stored avatar bytes. Returns ErrNotFound both
	// when the account is missing and when it has no avatar.
	GetAvatar(ctx context.Context, id string) ([]byte, error)
}

// ListOptions contains pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// ListResult contains a page of items and the total count.
type ListResult[T any] struct {
	Items []*T
	Total int64
}

// Health is an interface for backend health checks, satisfied by both
// database wrappers.
type Health interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
