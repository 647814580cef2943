package post

import (
	"context"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// Service is the application layer for posts. Every method receives
// the acting principal explicitly; access decisions are made per call.
type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreatePostRequest) (*Post, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, actor access.Actor, slug string) (*Post, error)
	List(ctx context.Context, actor access.Actor, req ListPostsRequest) ([]Post, int, error)
	Update(ctx context.Context, actor access.Actor, id uuid.UUID, req UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
}
