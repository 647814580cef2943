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
	"blog-backend/internal/domains/post"
	"blog-backend/pkg/cache"
)

// postgresRepository is the concrete implementation of post.Repository.
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) post.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

const postColumns = `
	id, title, content, excerpt, status, author_id,
	published_at, slug, featured, tags, created_at, updated_at
`

func scanPost(row pgx.Row) (*post.Post, error) {
	var p post.Post
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.Excerpt,
		&p.Status,
		&p.AuthorID,
		&p.PublishedAt,
		&p.Slug,
		&p.Featured,
		&p.Tags,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error, constraintHint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return constraintHint == "" || strings.Contains(pgErr.ConstraintName, constraintHint)
	}
	return false
}

// compileFilter turns an access filter into a parenthesised SQL
// disjunction. An empty filter compiles to FALSE: a restriction that
// names no visible rows must not widen into "everything".
func compileFilter(f *access.Filter, args []interface{}) (string, []interface{}) {
	if len(f.Any) == 0 {
		return "FALSE", args
	}

	columns := map[string]string{
		access.FieldStatus: "status",
		access.FieldAuthor: "author_id",
		access.FieldID:     "id",
	}

	clauses := make([]string, 0, len(f.Any))
	for _, c := range f.Any {
		col, ok := columns[c.Field]
		if !ok {
			// Unknown field: treat the clause as unsatisfiable.
			clauses = append(clauses, "FALSE")
			continue
		}
		args = append(args, c.Equals)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// ========================================
// BASIC CRUD
// ========================================

func (r *postgresRepository) Create(ctx context.Context, p *post.Post) error {
	query := `
		INSERT INTO posts (
			id, title, content, excerpt, status, author_id,
			published_at, slug, featured, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Content,
		p.Excerpt,
		p.Status,
		p.AuthorID,
		p.PublishedAt,
		p.Slug,
		p.Featured,
		p.Tags,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "slug") {
			return post.ErrSlugConflict
		}
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, post.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post by id: %w", err)
	}

	return p, nil
}

// FindBySlug is the public article page's hot path, so it is served
// cache-aside.
func (r *postgresRepository) FindBySlug(ctx context.Context, slug string) (*post.Post, error) {
	cacheKey := fmt.Sprintf("post:slug:%s", slug)

	var cached post.Post
	found, err := r.cache.Get(ctx, cacheKey, &cached)
	if err == nil && found {
		return &cached, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`

	p, err := scanPost(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, post.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post by slug: %w", err)
	}

	// 5 minute TTL; slugs can be re-pointed by edits, keep it short.
	_ = r.cache.Set(ctx, cacheKey, p, 5*time.Minute)

	return p, nil
}

func (r *postgresRepository) List(ctx context.Context, q post.ListQuery) ([]post.Post, int, error) {
	where := []string{}
	args := []interface{}{}

	if q.Access != nil {
		var clause string
		clause, args = compileFilter(q.Access, args)
		where = append(where, clause)
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Tag != "" {
		args = append(args, q.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if q.Featured != nil {
		args = append(args, *q.Featured)
		where = append(where, fmt.Sprintf("featured = $%d", len(args)))
	}
	if q.Author != nil {
		args = append(args, *q.Author)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}

	whereClause := "TRUE"
	if len(where) > 0 {
		whereClause = strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM posts WHERE %s
		 ORDER BY published_at DESC NULLS LAST, created_at DESC
		 LIMIT $%d OFFSET $%d`,
		postColumns, whereClause, len(args)+1, len(args)+2,
	)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]post.Post, 0, q.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts rows: %w", err)
	}

	return posts, total, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *post.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, excerpt = $4, status = $5,
		    author_id = $6, published_at = $7, slug = $8,
		    featured = $9, tags = $10, updated_at = $11
		WHERE id = $1
	`

	p.UpdatedAt = time.Now()

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Content,
		p.Excerpt,
		p.Status,
		p.AuthorID,
		p.PublishedAt,
		p.Slug,
		p.Featured,
		p.Tags,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "slug") {
			return post.ErrSlugConflict
		}
		return fmt.Errorf("update post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return post.ErrPostNotFound
	}

	r.invalidate(ctx, p)
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Fetch first so the slug cache entry can be dropped too.
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return post.ErrPostNotFound
	}

	r.invalidate(ctx, p)
	return nil
}

func (r *postgresRepository) invalidate(ctx context.Context, p *post.Post) {
	if p.Slug != nil {
		_ = r.cache.Delete(ctx, fmt.Sprintf("post:slug:%s", *p.Slug))
	}
}
