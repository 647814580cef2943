package user

import (
	"context"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// Repository is the persistence contract for the users collection.
// The implementation must enforce the unique index on email and provide an
// atomic increment for the denormalized post counter.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)

	// Update persists profile fields (name, bio, avatar).
	Update(ctx context.Context, u *User) error
	// UpdateRole writes the role field. Callers gate this behind
	// access.CanSetRole.
	UpdateRole(ctx context.Context, id uuid.UUID, role access.Role) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error

	// Delete soft-deletes the record. Posts keep their author reference;
	// orphaned references are accepted.
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementPostCount atomically adds delta to the user's post counter
	// (delta may be negative). Single SQL increment, no read-modify-write.
	IncrementPostCount(ctx context.Context, id uuid.UUID, delta int) error
}
