package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

// SessionClaims binds a session token to an account. The JTI makes every
// issued token unique, so revocation by exact string match is unambiguous.
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// SessionService issues, resolves, and revokes session tokens. Tokens are
// HS256-signed with a secret handed in at construction and carry no expiry:
// a token is valid exactly as long as it is present in the owning account's
// valid set.
type SessionService struct {
	accountRepo repository.AccountRepository
	secret      []byte
	logger      zerolog.Logger
}

// NewSessionService creates a new SessionService. The signing secret is
// process-wide for the process lifetime.
func NewSessionService(accountRepo repository.AccountRepository, secret []byte, logger zerolog.Logger) *SessionService {
	return &SessionService{
		accountRepo: accountRepo,
		secret:      secret,
		logger:      logger.With().Str("service", "session").Logger(),
	}
}

// Issue mints a signed token for the account and records it in the
// account's valid set.
func (s *SessionService) Issue(ctx context.Context, account *domain.Account) (string, error) {
	token, err := s.sign(account.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to sign token")
		return "", fmt.Errorf("%w: failed to sign token", ErrInternalError)
	}

	if err := s.accountRepo.AddToken(ctx, account.ID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to record token")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	account.Tokens = append(account.Tokens, token)

	s.logger.Info().Str("account_id", account.ID).Msg("session issued")
	return token, nil
}

// sign mints an HS256 token bound to the account ID, with a uuid JTI so
// every issued token is a distinct string.
func (s *SessionService) sign(accountID string) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
		AccountID: accountID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Resolve verifies a token and returns the account it denotes. Signature
// validity alone is not enough: the exact token string must still be present
// in the account's valid set, which is how logout and deletion revoke
// sessions that would otherwise verify forever.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Account, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		s.logger.Debug().Msg("token failed signature verification")
		return nil, domain.ErrInvalidToken
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("account_id", claims.AccountID).Msg("token bound to unknown account")
			return nil, domain.ErrInvalidToken
		}
		s.logger.Error().Err(err).Str("account_id", claims.AccountID).Msg("failed to load account")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !account.HasToken(token) {
		s.logger.Debug().Str("account_id", account.ID).Msg("token revoked")
		return nil, domain.ErrInvalidToken
	}

	return account, nil
}

// RevokeOne removes exactly the matching token from the account's valid set.
func (s *SessionService) RevokeOne(ctx context.Context, account *domain.Account, token string) error {
	if err := s.accountRepo.RemoveToken(ctx, account.ID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to revoke token")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	remaining := account.Tokens[:0]
	for _, t := range account.Tokens {
		if t != token {
			remaining = append(remaining, t)
		}
	}
	account.Tokens = remaining

	s.logger.Info().Str("account_id", account.ID).Msg("session revoked")
	return nil
}

// RevokeAll empties the account's valid token set.
func (s *SessionService) RevokeAll(ctx context.Context, account *domain.Account) error {
	if err := s.accountRepo.ClearTokens(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", account.ID).Msg("failed to revoke sessions")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	account.Tokens = []string{}

	s.logger.Info().Str("account_id", account.ID).Msg("all sessions revoked")
	return nil
}
