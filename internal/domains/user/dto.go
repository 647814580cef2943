package user

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// ========================================
// AUTH DTOs
// ========================================

// RegisterRequest - public signup. The requested role is a hint: the
// service forces it into {member, author} (an explicit admin request is
// downgraded, never honored).
type RegisterRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Role     access.Role `json:"role,omitempty"`
	Bio      *string     `json:"bio,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be 8-128 characters"),
			validation.Match(regexp.MustCompile(`[A-Z]`)).Error("password must contain at least one uppercase letter"),
			validation.Match(regexp.MustCompile(`[a-z]`)).Error("password must contain at least one lowercase letter"),
			validation.Match(regexp.MustCompile(`[0-9]`)).Error("password must contain at least one number"),
		),
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 100),
		),
		validation.Field(&r.Role,
			// A value outside the closed set fails validation outright;
			// downgrading only applies to valid-but-privileged requests.
			validation.When(r.Role != "",
				validation.In(access.RoleMember, access.RoleAuthor, access.RoleAdmin).
					Error("role must be one of member, author, admin"),
			),
		),
		validation.Field(&r.Bio,
			validation.When(r.Bio != nil, validation.Length(0, 500)),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse - JWT tokens
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserDTO   `json:"user"`
}

// ========================================
// USER PROFILE DTOs
// ========================================

// UserDTO - public user representation (safe to expose)
type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        access.Role `json:"role"`
	Bio         *string     `json:"bio,omitempty"`
	Avatar      *string     `json:"avatar,omitempty"`
	PostCount   int         `json:"post_count"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ToDTO converts User entity to UserDTO
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Bio:         u.Bio,
		Avatar:      u.Avatar,
		PostCount:   u.PostCount,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// UpdateUserRequest - owner updates own profile; admin updates anyone.
// Role is only honored for admin actors: a non-admin payload carrying a
// role is rejected with Forbidden, never silently stripped.
type UpdateUserRequest struct {
	Name   *string      `json:"name,omitempty"`
	Bio    *string      `json:"bio,omitempty"`
	Avatar *string      `json:"avatar,omitempty"`
	Role   *access.Role `json:"role,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil, validation.Length(2, 100)),
		),
		validation.Field(&r.Bio,
			validation.When(r.Bio != nil, validation.Length(0, 500)),
		),
		validation.Field(&r.Role,
			validation.When(r.Role != nil,
				validation.In(access.RoleMember, access.RoleAuthor, access.RoleAdmin).
					Error("role must be one of member, author, admin"),
			),
		),
	)
}

// ========================================
// ADMIN DTOs
// ========================================

// AdminCreateUserRequest - admin creates an account with a free role choice.
type AdminCreateUserRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Role     access.Role `json:"role" binding:"required"`
	Bio      *string     `json:"bio,omitempty"`
}

func (r AdminCreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email, validation.Length(5, 255)),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(8, 128),
		),
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Role,
			validation.Required,
			validation.In(access.RoleMember, access.RoleAuthor, access.RoleAdmin).
				Error("role must be one of member, author, admin"),
		),
		validation.Field(&r.Bio,
			validation.When(r.Bio != nil, validation.Length(0, 500)),
		),
	)
}

// UpdateRoleRequest - admin changes a user's role.
type UpdateRoleRequest struct {
	Role access.Role `json:"role" binding:"required"`
}

func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role,
			validation.Required,
			validation.In(access.RoleMember, access.RoleAuthor, access.RoleAdmin).
				Error("role must be one of member, author, admin"),
		),
	)
}

// ListUsersRequest - admin listing with filters.
type ListUsersRequest struct {
	Role      *access.Role `form:"role"`
	Search    string       `form:"search"` // email or name
	Page      int          `form:"page"`
	Limit     int          `form:"limit"`
	SortBy    string       `form:"sort_by"`    // "created_at", "post_count", "email"
	SortOrder string       `form:"sort_order"` // "asc", "desc"
}

// SetDefaults sets default values for pagination
func (r *ListUsersRequest) SetDefaults() {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Limit == 0 {
		r.Limit = 20
	}
	if r.SortBy == "" {
		r.SortBy = "created_at"
	}
	if r.SortOrder == "" {
		r.SortOrder = "desc"
	}
}

func (r ListUsersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role,
			validation.When(r.Role != nil,
				validation.In(access.RoleMember, access.RoleAuthor, access.RoleAdmin),
			),
		),
		validation.Field(&r.Page, validation.Min(1)),
		validation.Field(&r.Limit, validation.Min(1), validation.Max(100)),
		validation.Field(&r.SortBy,
			validation.In("created_at", "post_count", "email"),
		),
		validation.Field(&r.SortOrder,
			validation.In("asc", "desc"),
		),
	)
}

// ListUsersResponse - paginated user list.
type ListUsersResponse struct {
	Users      []UserDTO      `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
}
