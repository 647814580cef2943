package user

import (
	"time"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// User is the identity domain entity, mapped 1:1 to the users table.
type User struct {
	// Identity
	ID    uuid.UUID `db:"id" json:"id"`
	Email string    `db:"email" json:"email"` // unique

	// Authentication
	PasswordHash string `db:"password_hash" json:"-"` // Never expose in JSON

	// Profile
	Name   string  `db:"name" json:"name"`
	Bio    *string `db:"bio" json:"bio,omitempty"`
	Avatar *string `db:"avatar" json:"avatar,omitempty"`

	// Authorization - closed role set {admin, author, member}
	Role access.Role `db:"role" json:"role"`

	// Denormalized post counter. Advisory/display-only: updated best-effort
	// after post writes, a lost update under concurrency is accepted.
	PostCount int `db:"post_count" json:"post_count"`

	// Activity
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`

	// Timestamps
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"` // Soft delete
}

// AccessFields exposes the user record to the evaluator's filter clauses.
func (u *User) AccessFields() access.Fields {
	return access.Fields{
		access.FieldID: u.ID.String(),
	}
}

// Actor converts a stored user into the actor it acts as.
func (u *User) Actor() access.Actor {
	return access.Actor{ID: u.ID, Role: u.Role}
}
