package post

import "errors"

// ========================================
// POST DOMAIN ERRORS
// ========================================

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrSlugConflict    = errors.New("slug already exists")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not permitted")
	ErrInvalidStatus   = errors.New("invalid post status")
)
