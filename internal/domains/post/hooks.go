package post

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blog-backend/internal/access"
	"blog-backend/internal/shared/utils"
)

// Field length limits, enforced both on the request DTOs and again on
// the assembled entity before it is persisted.
const (
	TitleMinLength   = 3
	TitleMaxLength   = 200
	ContentMinLength = 10
	ExcerptMaxLength = 200
)

// Clock supplies timestamps so the publish stamp is testable.
type Clock func() time.Time

// PostCommitHook runs after a post has been persisted. Hook failures
// never fail the mutation: the pipeline logs and moves on.
type PostCommitHook func(ctx context.Context, p *Post, delta int) error

// Pipeline applies the ordered pre-persist mutations (author
// assignment, publish stamping, slug derivation, entity validation)
// and dispatches best-effort post-commit hooks.
type Pipeline struct {
	now   Clock
	hooks []PostCommitHook
	warn  func(msg string, err error, fields map[string]interface{})
}

func NewPipeline(now Clock, warn func(msg string, err error, fields map[string]interface{}), hooks ...PostCommitHook) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{now: now, hooks: hooks, warn: warn}
}

// PrepareCreate fills derived fields on a new post. Steps run in a
// fixed order: author, publish stamp, slug, then validation.
func (pl *Pipeline) PrepareCreate(actor access.Actor, p *Post) error {
	if err := pl.assignAuthor(actor, p); err != nil {
		return err
	}
	pl.stampPublished(p)
	pl.deriveSlug(p)
	return pl.validate(p)
}

// PrepareUpdate applies a partial update onto the stored post and
// re-runs the derived-field steps that the change affects.
func (pl *Pipeline) PrepareUpdate(actor access.Actor, stored *Post, req UpdatePostRequest) error {
	if req.AuthorID != nil && *req.AuthorID != stored.AuthorID {
		if !access.CanSetAuthor(actor) {
			return ErrForbidden
		}
		stored.AuthorID = *req.AuthorID
	}

	if req.Title != nil {
		stored.Title = *req.Title
	}
	if req.Content != nil {
		stored.Content = *req.Content
	}
	if req.Excerpt != nil {
		stored.Excerpt = req.Excerpt
	}
	if req.Featured != nil {
		stored.Featured = *req.Featured
	}
	if req.Tags != nil {
		stored.Tags = req.Tags
	}
	if req.Status != nil {
		stored.Status = *req.Status
	}
	pl.stampPublished(stored)

	// Slugs are stable across title edits. Only an explicit empty slug
	// in the payload asks for a fresh derivation.
	if req.Slug != nil {
		if strings.TrimSpace(*req.Slug) == "" {
			stored.Slug = nil
			pl.deriveSlug(stored)
		} else {
			s := utils.GenerateSlug(*req.Slug)
			stored.Slug = &s
		}
	}

	return pl.validate(stored)
}

// RunPostCommit fires every registered hook. Errors are logged as
// warnings and swallowed: the mutation already succeeded.
func (pl *Pipeline) RunPostCommit(ctx context.Context, p *Post, delta int) {
	for _, hook := range pl.hooks {
		if err := hook(ctx, p, delta); err != nil && pl.warn != nil {
			pl.warn("post-commit hook failed", err, map[string]interface{}{
				"post_id":   p.ID.String(),
				"author_id": p.AuthorID.String(),
			})
		}
	}
}

func (pl *Pipeline) assignAuthor(actor access.Actor, p *Post) error {
	if p.AuthorID == uuid.Nil {
		if !actor.Authenticated() {
			return ErrUnauthenticated
		}
		p.AuthorID = actor.ID
		return nil
	}
	if p.AuthorID != actor.ID && !access.CanSetAuthor(actor) {
		return ErrForbidden
	}
	return nil
}

func (pl *Pipeline) stampPublished(p *Post) {
	if p.Status == StatusPublished && p.PublishedAt == nil {
		t := pl.now().UTC()
		p.PublishedAt = &t
	}
}

func (pl *Pipeline) deriveSlug(p *Post) {
	if p.Slug != nil && *p.Slug != "" {
		s := utils.GenerateSlug(*p.Slug)
		p.Slug = &s
		return
	}
	if p.Title == "" {
		return
	}
	s := utils.GenerateSlug(p.Title)
	if s == "" {
		return
	}
	p.Slug = &s
}

// validate re-checks the assembled entity. Request DTOs validate their
// own shape; this guards combinations a partial update can produce.
func (pl *Pipeline) validate(p *Post) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title,
			validation.Required.Error("title is required"),
			validation.Length(TitleMinLength, TitleMaxLength),
		),
		validation.Field(&p.Content,
			validation.Required.Error("content is required"),
			validation.Length(ContentMinLength, 0),
		),
		validation.Field(&p.Excerpt,
			validation.Length(0, ExcerptMaxLength),
		),
		validation.Field(&p.Status,
			validation.Required,
			validation.In(StatusDraft, StatusPublished).Error("status must be draft or published"),
		),
	)
}
