package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

// accountRepository implements repository.AccountRepository for SQLite.
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new SQLite account repository.
func NewAccountRepository(db *DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = "id, name, email, secret_hash, age, created_at, updated_at"

// Create creates a new account.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, secret_hash, age, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.SecretHash,
		account.Age,
		account.Avatar,
		account.CreatedAt.Format(time.RFC3339Nano),
		account.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID, including its token set.
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves an account by normalized email, including its token set.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *accountRepository) getBy(ctx context.Context, column, value string) (*domain.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE %s = ?", accountColumns, column)

	account, err := scanAccount(r.db.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, err
	}

	tokens, err := r.tokens(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Tokens = tokens
	return account, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var createdAt, updatedAt string

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.SecretHash,
		&account.Age,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	account.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return account, nil
}

func (r *accountRepository) tokens(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx,
		"SELECT token FROM account_tokens WHERE account_id = ? ORDER BY issued_at", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Update updates the identity fields of an existing account.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = ?, email = ?, secret_hash = ?, age = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.db.ExecContext(ctx, query,
		account.Name,
		account.Email,
		account.SecretHash,
		account.Age,
		account.UpdatedAt.Format(time.RFC3339Nano),
		account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRows(result)
}

// Delete deletes an account together with its token set.
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM account_tokens WHERE account_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if err := requireRows(result); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns accounts with pagination, ordered by creation time.
func (r *accountRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Account], error) {
	var total int64
	if err := r.db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM accounts ORDER BY created_at LIMIT ? OFFSET ?", accountColumns)
	rows, err := r.db.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var items []*domain.Account
	for rows.Next() {
		account := &domain.Account{}
		var createdAt, updatedAt string
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.SecretHash,
			&account.Age,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		account.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		items = append(items, account)
	}

	return &repository.ListResult[domain.Account]{Items: items, Total: total}, rows.Err()
}

// ExistsByEmail checks if an account with the given email exists.
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE email = ?", email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// AddToken appends a session token to the account's valid set.
func (r *accountRepository) AddToken(ctx context.Context, id, token string) error {
	if err := r.requireAccount(ctx, id); err != nil {
		return err
	}
	_, err := r.db.db.ExecContext(ctx,
		"INSERT INTO account_tokens (token, account_id, issued_at) VALUES (?, ?, ?)",
		token, id, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to add token: %w", err)
	}
	return nil
}

// RemoveToken removes exactly the matching token.
func (r *accountRepository) RemoveToken(ctx context.Context, id, token string) error {
	if err := r.requireAccount(ctx, id); err != nil {
		return err
	}
	_, err := r.db.db.ExecContext(ctx,
		"DELETE FROM account_tokens WHERE account_id = ? AND token = ?", id, token)
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// ClearTokens empties the account's valid token set.
func (r *accountRepository) ClearTokens(ctx context.Context, id string) error {
	if err := r.requireAccount(ctx, id); err != nil {
		return err
	}
	_, err := r.db.db.ExecContext(ctx,
		"DELETE FROM account_tokens WHERE account_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// SetAvatar stores avatar bytes on the account row.
func (r *accountRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	result, err := r.db.db.ExecContext(ctx,
		"UPDATE accounts SET avatar = ? WHERE id = ?", avatar, id)
	if err != nil {
		return fmt.Errorf("failed to set avatar: %w", err)
	}
	return requireRows(result)
}

// ClearAvatar removes the avatar from the account row.
func (r *accountRepository) ClearAvatar(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx,
		"UPDATE accounts SET avatar = NULL WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	return requireRows(result)
}

// GetAvatar retrieves stored avatar bytes. A missing account and a missing
// avatar both report ErrNotFound.
func (r *accountRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	var avatar []byte
	err := r.db.db.QueryRowContext(ctx,
		"SELECT avatar FROM accounts WHERE id = ?", id).Scan(&avatar)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}
	if len(avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return avatar, nil
}

func (r *accountRepository) requireAccount(ctx context.Context, id string) error {
	var count int
	err := r.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accounts WHERE id = ?", id).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func requireRows(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
