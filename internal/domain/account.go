// Package domain contains the core business entities for Atlas Accounts.
// These are pure Go structs with no service dependencies, representing
// the fundamental concepts of the account system.
package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Account represents a registered account in the system.
// An account owns its avatar and the set of session tokens currently
// honored for it.
type Account struct {
	// ID is the unique identifier for the account, assigned at creation.
	ID string `json:"id" bson:"_id"`

	// Name is the display name. Constraints: non-empty.
	Name string `json:"name" bson:"name"`

	// Email is the unique, normalized (trimmed, lowercased) email address.
	Email string `json:"email" bson:"email"`

	// SecretHash is the bcrypt hash of the account's password.
	// Never exposed in API responses.
	SecretHash string `json:"-" bson:"secret_hash"`

	// Age is the optional age. Zero or positive.
	Age int `json:"age,omitempty" bson:"age,omitempty"`

	// Avatar is the normalized PNG avatar, stored inline on the document.
	// Never exposed in JSON responses; retrieved through its own endpoint.
	Avatar []byte `json:"-" bson:"avatar,omitempty"`

	// Tokens is the set of currently-valid session tokens, in issue order.
	// A token removed from this set is dead even if its signature still
	// verifies. Never exposed in API responses.
	Tokens []string `json:"-" bson:"tokens"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// UpdatedAt is the timestamp when the account was last updated.
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewAccount creates a new Account with an empty token set.
// The secret must already be hashed; plaintext never reaches this layer.
func NewAccount(id, name, email, secretHash string, age int) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:         id,
		Name:       name,
		Email:      email,
		SecretHash: secretHash,
		Age:        age,
		Tokens:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// HasToken reports whether the exact token string is currently honored.
func (a *Account) HasToken(token string) bool {
	for _, t := range a.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// NormalizeEmail trims surrounding whitespace and lowercases an email
// address. All lookups and uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the (already normalized) address parses as an
// email.
func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
