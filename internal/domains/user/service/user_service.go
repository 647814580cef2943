package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"blog-backend/internal/access"
	"blog-backend/internal/domains/user"
	"blog-backend/pkg/cache"
	"blog-backend/pkg/jwt"
	"blog-backend/pkg/logger"
)

const (
	bcryptCost = 12

	// Failed-login throttling
	maxLoginAttempts  = 5
	loginAttemptTTL   = 15 * time.Minute
	loginAttemptsKey  = "login:fail:%s"
	accessTokenExpiry = 15 * time.Minute
)

// userService implements user.Service.
type userService struct {
	repo       user.Repository
	evaluator  access.Evaluator
	jwtManager *jwt.Manager
	cache      cache.Cache
}

func NewUserService(repo user.Repository, evaluator access.Evaluator, jwtManager *jwt.Manager, c cache.Cache) user.Service {
	return &userService{
		repo:       repo,
		evaluator:  evaluator,
		jwtManager: jwtManager,
		cache:      c,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

// Register is the self-service signup path (no acting identity).
func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	// Validation runs before any access or mutation rule: an out-of-set
	// role never reaches the role-forcing step.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	newUser := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Bio:          req.Bio,
		// Hard invariant: self-service never mints an admin. An explicit
		// admin request is downgraded to member, not honored and not an
		// error.
		Role:      access.SignupRole(req.Role),
		PostCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	throttleKey := fmt.Sprintf(loginAttemptsKey, req.Email)
	if s.tooManyAttempts(ctx, throttleKey) {
		return nil, user.ErrTooManyAttempts
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Do not reveal whether the email exists.
		s.recordFailedAttempt(ctx, throttleKey)
		return nil, user.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedAttempt(ctx, throttleKey)
		return nil, user.ErrInvalidCredentials
	}

	_ = s.cache.Delete(ctx, throttleKey)

	resp, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: last-login is display-only.
	go func() {
		_ = s.repo.UpdateLastLogin(context.Background(), u.ID)
	}()

	return resp, nil
}

func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	// Re-read the record so a role change or deletion takes effect on the
	// next refresh, not at token expiry.
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	return s.issueTokens(u)
}

func (s *userService) issueTokens(u *user.User) (*user.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &user.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(accessTokenExpiry),
		User:         u.ToDTO(),
	}, nil
}

func (s *userService) tooManyAttempts(ctx context.Context, key string) bool {
	var attempts int
	found, err := s.cache.Get(ctx, key, &attempts)
	return err == nil && found && attempts >= maxLoginAttempts
}

func (s *userService) recordFailedAttempt(ctx context.Context, key string) {
	n, err := s.cache.Increment(ctx, key)
	if err != nil {
		return // throttling degrades open if the cache is down
	}
	if n == 1 {
		_ = s.cache.Expire(ctx, key, loginAttemptTTL)
	}
}

// ========================================
// READ / UPDATE (owner-or-admin policy)
// ========================================

func (s *userService) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*user.UserDTO, error) {
	decision := s.evaluator.Evaluate(access.OpRead, access.CollectionUsers, actor)
	if !decision.Allowed() {
		return nil, authError(actor)
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !decision.Resolve(u.AccessFields()) {
		return nil, user.ErrForbidden
	}

	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req user.UpdateUserRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision := s.evaluator.Evaluate(access.OpUpdate, access.CollectionUsers, actor)
	if !decision.Allowed() {
		return nil, authError(actor)
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Re-check against the stored record: collection-level permission is
	// not a grant for this specific document.
	if !decision.Resolve(u.AccessFields()) {
		return nil, user.ErrForbidden
	}

	// The role field is writable only by admin, regardless of the
	// collection-level permission. Reject, do not strip.
	if req.Role != nil && !access.CanSetRole(actor) {
		return nil, user.ErrForbidden
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Bio != nil {
		u.Bio = req.Bio
	}
	if req.Avatar != nil {
		u.Avatar = req.Avatar
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	// Profile fields and the role land in two statements; a failure
	// between them leaves the profile written and the role unchanged.
	// Accepted: each statement is atomic per document, and the caller
	// sees the error and retries.
	if req.Role != nil && *req.Role != u.Role {
		if err := s.repo.UpdateRole(ctx, u.ID, *req.Role); err != nil {
			return nil, err
		}
		u.Role = *req.Role
	}

	dto := u.ToDTO()
	return &dto, nil
}

// ========================================
// ADMIN OPERATIONS
// ========================================

func (s *userService) AdminCreate(ctx context.Context, actor access.Actor, req user.AdminCreateUserRequest) (*user.UserDTO, error) {
	// Admin-only accounts cannot be minted through self-service paths:
	// an authenticated non-admin creator is rejected outright.
	if !actor.Authenticated() {
		return nil, user.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, user.ErrForbidden
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	newUser := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Bio:          req.Bio,
		Role:         req.Role, // free choice for admin creators
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	logger.Info("user created by admin", map[string]interface{}{
		"user_id": newUser.ID,
		"role":    newUser.Role,
		"actor":   actor.ID,
	})

	dto := newUser.ToDTO()
	return &dto, nil
}

func (s *userService) List(ctx context.Context, actor access.Actor, req user.ListUsersRequest) (*user.ListUsersResponse, error) {
	decision := s.evaluator.Evaluate(access.OpRead, access.CollectionUsers, actor)
	// Listing all identities is the unconditional-read case: owner-filtered
	// actors use Get on their own record instead.
	if decision.Effect != access.EffectAllow {
		return nil, authError(actor)
	}

	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	dtos := make([]user.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].ToDTO())
	}

	totalPages := (total + req.Limit - 1) / req.Limit

	return &user.ListUsersResponse{
		Users: dtos,
		Pagination: user.PaginationMeta{
			CurrentPage: req.Page,
			PerPage:     req.Limit,
			Total:       total,
			TotalPages:  totalPages,
		},
	}, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor access.Actor, id uuid.UUID, role access.Role) (*user.UserDTO, error) {
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}
	if !access.CanSetRole(actor) {
		return nil, authError(actor)
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	decision := s.evaluator.Evaluate(access.OpDelete, access.CollectionUsers, actor)
	if !decision.Allowed() {
		return authError(actor)
	}

	return s.repo.Delete(ctx, id)
}

// authError distinguishes "no identity" from "identity without permission".
func authError(actor access.Actor) error {
	if !actor.Authenticated() {
		return user.ErrUnauthenticated
	}
	return user.ErrForbidden
}
