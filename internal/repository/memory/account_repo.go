// Package memory provides an in-memory account repository. It backs unit
// and handler tests and is not durable across restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

// AccountRepository is a mutex-guarded map-backed implementation of
// repository.AccountRepository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountRepository creates an empty in-memory repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == account.Email {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
	}
	r.accounts[account.ID] = clone(account)
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(account), nil
}

// GetByEmail retrieves an account by normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update persists changed identity fields.
func (r *AccountRepository) Update(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, a := range r.accounts {
		if a.ID != account.ID && a.Email == account.Email {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
	}
	stored.Name = account.Name
	stored.Email = account.Email
	stored.SecretHash = account.SecretHash
	stored.Age = account.Age
	stored.UpdatedAt = account.UpdatedAt
	return nil
}

// Delete removes the account and every token it holds.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

// List returns accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Account], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, clone(a))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	if opts.Offset > len(all) {
		return &repository.ListResult[domain.Account]{Items: nil, Total: total}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return &repository.ListResult[domain.Account]{Items: all, Total: total}, nil
}

// ExistsByEmail checks if an account with the normalized email exists.
func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// AddToken appends a session token to the account's valid set.
func (r *AccountRepository) AddToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Tokens = append(account.Tokens, token)
	return nil
}

// RemoveToken removes exactly the matching token.
func (r *AccountRepository) RemoveToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	remaining := account.Tokens[:0]
	for _, t := range account.Tokens {
		if t != token {
			remaining = append(remaining, t)
		}
	}
	account.Tokens = remaining
	return nil
}

// ClearTokens empties the account's valid token set.
func (r *AccountRepository) ClearTokens(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Tokens = []string{}
	return nil
}

// SetAvatar stores avatar bytes on the account.
func (r *AccountRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Avatar = append([]byte(nil), avatar...)
	return nil
}

// ClearAvatar removes the avatar.
func (r *AccountRepository) ClearAvatar(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Avatar = nil
	return nil
}

// GetAvatar retrieves stored avatar bytes. Missing account and missing
// avatar are the same ErrNotFound.
func (r *AccountRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok || len(account.Avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), account.Avatar...), nil
}

func clone(a *domain.Account) *domain.Account {
	c := *a
	c.Tokens = append([]string(nil), a.Tokens...)
	c.Avatar = append([]byte(nil), a.Avatar...)
	return &c
}
