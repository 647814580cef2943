package user

import "errors"

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Service-level (business logic) errors
var (
	// Authentication
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTooManyAttempts    = errors.New("too many login attempts, please try again later")

	// Authorization
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden: insufficient permissions")

	// Validation
	ErrInvalidRole = errors.New("invalid user role")
)
