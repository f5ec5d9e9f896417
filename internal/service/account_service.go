// Package service provides business logic services for Atlas Accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/mail"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

// AccountService owns the persistent representation of accounts: identity
// fields, the hashed secret, and the avatar. Hashing happens here, before
// persistence, never as an implicit storage hook.
type AccountService struct {
	accountRepo repository.AccountRepository
	notifier    mail.Notifier
	logger      zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo repository.AccountRepository, notifier mail.Notifier, logger zerolog.Logger) *AccountService {
	if notifier == nil {
		notifier = mail.NopNotifier{}
	}
	return &AccountService{
		accountRepo: accountRepo,
		notifier:    notifier,
		logger:      logger.With().Str("service", "account").Logger(),
	}
}

// CreateAccountInput contains the data needed to register an account.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// Create registers a new account. The email is normalized before the
// uniqueness check, the password is bcrypt-hashed before persistence, and a
// welcome notification is dispatched fire-and-forget.
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	if err := validateIdentity(input.Name, input.Email, input.Age); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrEmailTaken, input.Email)
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	account := domain.NewAccount(uuid.NewString(), input.Name, input.Email, string(secretHash), input.Age)

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: '%s'", domain.ErrEmailTaken, input.Email)
		}
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.notifier.Dispatch(mail.Message{
		To:      account.Email,
		Subject: "Welcome",
		Body:    fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", account.Name),
	})

	s.logger.Info().
		Str("account_id", account.ID).
		Str("email", account.Email).
		Msg("account created")

	return account, nil
}

// Authenticate verifies credentials and returns the account. The same
// error is returned for an unknown email and for a wrong password.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Log but don't expose whether the email exists
			s.logger.Debug().Str("email", email).Msg("unknown email during authentication")
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to load account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(password)); err != nil {
		s.logger.Debug().Str("email", email).Msg("wrong password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Str("account_id", account.ID).Msg("account authenticated")
	return account, nil
}

// GetByID retrieves an account by ID.
func (s *AccountService) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to get account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return account, nil
}

// allowedUpdateFields is the fixed allow-set for Update. Any other
// presented field rejects the entire request.
var allowedUpdateFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// Update applies a partial update to the account. Fields holds raw values
// keyed by field name; a key outside the allow-set fails the whole request
// and leaves the account unchanged. A changed password is re-hashed before
// persistence. Existing sessions are NOT revoked on password change.
func (s *AccountService) Update(ctx context.Context, id string, fields map[string]any) (*domain.Account, error) {
	for key := range fields {
		if !allowedUpdateFields[key] {
			return nil, fmt.Errorf("%w: unknown field '%s'", domain.ErrUnknownField, key)
		}
	}

	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if v, ok := fields["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string", domain.ErrInvalidName)
		}
		account.Name = name
	}
	if v, ok := fields["email"]; ok {
		email, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: email must be a string", domain.ErrInvalidEmail)
		}
		account.Email = domain.NormalizeEmail(email)
	}
	if v, ok := fields["age"]; ok {
		age, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: age must be an integer", domain.ErrInvalidAge)
		}
		account.Age = age
	}

	if err := validateIdentity(account.Name, account.Email, account.Age); err != nil {
		return nil, err
	}

	if v, ok := fields["password"]; ok {
		password, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: password must be a string", domain.ErrInvalidPassword)
		}
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		secretHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		account.SecretHash = string(secretHash)
	}

	account.UpdatedAt = time.Now().UTC()

	if err := s.accountRepo.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrAccountNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("%w: '%s'", domain.ErrEmailTaken, account.Email)
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to update account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("account_id", account.ID).Msg("account updated")
	return account, nil
}

// Delete removes the account. All of its tokens die with the document, and a
// farewell notification is dispatched fire-and-forget.
func (s *AccountService) Delete(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to delete account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.notifier.Dispatch(mail.Message{
		To:      account.Email,
		Subject: "Goodbye",
		Body:    fmt.Sprintf("Goodbye, %s. I hope to see you back soon.", account.Name),
	})

	s.logger.Info().Str("account_id", id).Msg("account deleted")
	return account, nil
}

// SetAvatar stores pre-normalized avatar bytes on the account.
func (s *AccountService) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	if err := s.accountRepo.SetAvatar(ctx, id, avatar); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to set avatar")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.logger.Info().Str("account_id", id).Msg("avatar set")
	return nil
}

// ClearAvatar removes the account's avatar.
func (s *AccountService) ClearAvatar(ctx context.Context, id string) error {
	if err := s.accountRepo.ClearAvatar(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to clear avatar")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.logger.Info().Str("account_id", id).Msg("avatar cleared")
	return nil
}

// GetAvatar returns stored avatar bytes. A missing account and an account
// without an avatar report the same domain.ErrAvatarNotFound.
func (s *AccountService) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	avatar, err := s.accountRepo.GetAvatar(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAvatarNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("failed to get avatar")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return avatar, nil
}

// ListAccountsInput contains pagination options.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccountsOutput contains a page of accounts.
type ListAccountsOutput struct {
	Accounts   []*domain.Account
	TotalCount int64
}

// List returns accounts with pagination. Used by the admin CLI.
func (s *AccountService) List(ctx context.Context, input ListAccountsInput) (*ListAccountsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	result, err := s.accountRepo.List(ctx, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list accounts")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListAccountsOutput{
		Accounts:   result.Items,
		TotalCount: result.Total,
	}, nil
}

// validateIdentity validates name, normalized email, and age.
func validateIdentity(name, email string, age int) error {
	if len(name) < 1 || len(name) > 255 {
		return domain.ErrInvalidName
	}
	if !domain.ValidEmail(email) {
		return domain.ErrInvalidEmail
	}
	if age < 0 {
		return domain.ErrInvalidAge
	}
	return nil
}

// validatePassword validates password length. The upper bound is bcrypt's
// 72-byte input limit.
func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return domain.ErrInvalidPassword
	}
	return nil
}

// toInt converts JSON-decoded numeric values to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
