package user

import (
	"context"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// Service is the business-logic contract for the users collection.
// Every method that touches an existing record takes the acting identity
// explicitly; there is no ambient actor lookup anywhere below this line.
type Service interface {
	// Register is the public signup path. The requested role is forced
	// into {member, author}; admin is downgraded to member.
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)

	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)

	// Get applies the owner-or-admin read policy.
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*UserDTO, error)

	// Update lets the owner change profile fields and an admin change
	// anything including role. A non-admin payload carrying a role fails
	// with ErrForbidden.
	Update(ctx context.Context, actor access.Actor, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error)

	// AdminCreate mints an account with a free role choice. Only admins;
	// authenticated non-admins are rejected outright.
	AdminCreate(ctx context.Context, actor access.Actor, req AdminCreateUserRequest) (*UserDTO, error)

	List(ctx context.Context, actor access.Actor, req ListUsersRequest) (*ListUsersResponse, error)
	UpdateRole(ctx context.Context, actor access.Actor, id uuid.UUID, role access.Role) (*UserDTO, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
}
