package post

import (
	"context"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// ListQuery combines client filters with the evaluator's visibility
// restriction. A nil Access filter means unrestricted (admin).
type ListQuery struct {
	Access   *access.Filter
	Status   *Status
	Tag      string
	Featured *bool
	Author   *uuid.UUID
	Limit    int
	Offset   int
}

// Repository is the persistence port for posts.
type Repository interface {
	Create(ctx context.Context, p *Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, q ListQuery) ([]Post, int, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthorCounter maintains the denormalized per-author post counter.
// Satisfied by the user repository.
type AuthorCounter interface {
	IncrementPostCount(ctx context.Context, id uuid.UUID, delta int) error
}
