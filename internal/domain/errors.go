package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken indicates an account with the same normalized email exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates authentication failed. Deliberately the
	// same error for an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates the presented session token is malformed,
	// forged, or revoked. Deliberately not more specific.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrInvalidName indicates the name is empty or too long.
	ErrInvalidName = errors.New("invalid name: must be 1-255 characters")

	// ErrInvalidEmail indicates the email shape is invalid.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword indicates the password fails length constraints.
	ErrInvalidPassword = errors.New("invalid password: must be 8-72 characters")

	// ErrInvalidAge indicates a negative age.
	ErrInvalidAge = errors.New("invalid age: must not be negative")

	// ErrUnknownField indicates an update presented a field outside the
	// allowed set. The whole update is rejected.
	ErrUnknownField = errors.New("invalid updates")

	// ErrAvatarNotFound indicates no avatar is available for the identifier.
	// Returned whether the account is missing or merely has no avatar.
	ErrAvatarNotFound = errors.New("avatar not found")

	// ErrUnsupportedImage indicates the uploaded bytes are not a supported
	// raster format.
	ErrUnsupportedImage = errors.New("file must be an image")

	// ErrImageTooLarge indicates the upload exceeds the size cap.
	ErrImageTooLarge = errors.New("image exceeds maximum upload size")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., account ID, email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
