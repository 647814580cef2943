package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-backend/internal/access"
	"blog-backend/internal/domains/user"
	"blog-backend/pkg/cache"
)

// postgresRepository is the concrete implementation of user.Repository.
// Private struct, public constructor returning the interface: callers
// depend on the abstraction and tests can swap in a fake.
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) user.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

const userColumns = `
	id, email, password_hash, name, bio, avatar, role,
	post_count, last_login_at, created_at, updated_at, deleted_at
`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Bio,
		&u.Avatar,
		&u.Role,
		&u.PostCount,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation maps PostgreSQL error 23505 to the domain conflict.
func isUniqueViolation(err error, constraintHint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraintHint == "" || strings.Contains(pgErr.ConstraintName, constraintHint)
	}
	return false
}

// ========================================
// BASIC CRUD
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, name, bio, avatar, role,
			post_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Bio,
		u.Avatar,
		u.Role,
		u.PostCount,
		u.CreatedAt,
		u.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "email") {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// FindByID uses cache-aside: hot identity lookups (every authenticated
// request resolving its actor's profile) hit Redis first.
func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cacheKey := fmt.Sprintf("user:%s", id.String())

	var cached user.User
	found, err := r.cache.Get(ctx, cacheKey, &cached)
	if err == nil && found {
		return &cached, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	// 15 minute TTL; a failed set never fails the read.
	_ = r.cache.Set(ctx, cacheKey, u, 15*time.Minute)

	return u, nil
}

// FindByEmail is used on login only, so it skips the cache.
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return u, nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) List(ctx context.Context, req user.ListUsersRequest) ([]user.User, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}
	argPos := 1

	if req.Role != nil {
		where = append(where, fmt.Sprintf("role = $%d", argPos))
		args = append(args, *req.Role)
		argPos++
	}
	if req.Search != "" {
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	// Sort column is validated against an allow-list in the DTO; never
	// interpolate raw client input here.
	orderBy := req.SortBy
	if req.SortOrder == "asc" {
		orderBy += " ASC"
	} else {
		orderBy += " DESC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM users WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, orderBy, argPos, argPos+1,
	)
	args = append(args, req.Limit, (req.Page-1)*req.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0, req.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users rows: %w", err)
	}

	return users, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET name = $2, bio = $3, avatar = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`

	u.UpdatedAt = time.Now()

	result, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Bio, u.Avatar, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	r.invalidate(ctx, u.ID)
	return nil
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role access.Role) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, role,
	)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_login_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

// IncrementPostCount is a single atomic SQL increment; callers treat a
// failure here as non-fatal (the counter is advisory).
func (r *postgresRepository) IncrementPostCount(ctx context.Context, id uuid.UUID, delta int) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE users SET post_count = GREATEST(post_count + $2, 0) WHERE id = $1 AND deleted_at IS NULL`,
		id, delta,
	)
	if err != nil {
		return fmt.Errorf("increment post count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	_ = r.cache.Delete(ctx, fmt.Sprintf("user:%s", id.String()))
}
