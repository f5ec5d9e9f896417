package service

import "errors"

// Common service errors.
var (
	// General errors
	ErrInternalError = errors.New("internal server error")
)
