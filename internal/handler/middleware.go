package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/prn-tf/atlas-accounts/internal/domain"
)

type contextKey string

const (
	accountContextKey contextKey = "account"
	tokenContextKey   contextKey = "token"
)

// SessionResolver resolves a bearer token to the account it denotes.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Account, error)
}

// RequireSession authenticates requests with an Authorization bearer token.
// On success the resolved account and the exact token string are injected
// into the request context; revoked or malformed tokens get a 401.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, domain.ErrInvalidToken)
				return
			}

			account, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, account)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// accountFrom returns the authenticated account from the request context.
func accountFrom(r *http.Request) *domain.Account {
	account, _ := r.Context().Value(accountContextKey).(*domain.Account)
	return account
}

// tokenFrom returns the presented session token from the request context.
func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(tokenContextKey).(string)
	return token
}
