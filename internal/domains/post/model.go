package post

import (
	"time"

	"github.com/google/uuid"

	"blog-backend/internal/access"
)

// Status is the content lifecycle state.
type Status string

const (
	StatusDraft     Status = Status(access.StatusDraft)
	StatusPublished Status = Status(access.StatusPublished)
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post is the content-item domain entity, mapped 1:1 to the posts table.
type Post struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Title string    `db:"title" json:"title"`

	// Content is the rich-text body. Opaque to this layer: it is stored
	// and returned verbatim, only its length is validated.
	Content string  `db:"content" json:"content"`
	Excerpt *string `db:"excerpt" json:"excerpt,omitempty"`

	Status Status `db:"status" json:"status"`

	// AuthorID is a weak reference: deleting the user does not cascade,
	// orphaned author references are accepted.
	AuthorID uuid.UUID `db:"author_id" json:"author_id"`

	// PublishedAt is stamped exactly when status first transitions into
	// published; it is never auto-cleared afterwards.
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`

	// Slug is unique and stable once derived. Only an explicit clear in
	// an update payload triggers re-derivation.
	Slug *string `db:"slug" json:"slug,omitempty"`

	Featured bool     `db:"featured" json:"featured"`
	Tags     []string `db:"tags" json:"tags,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AccessFields exposes the post to the evaluator's filter clauses.
func (p *Post) AccessFields() access.Fields {
	return access.Fields{
		access.FieldStatus: string(p.Status),
		access.FieldAuthor: p.AuthorID.String(),
	}
}

// Published reports whether the post is publicly visible.
func (p *Post) Published() bool {
	return p.Status == StatusPublished
}
