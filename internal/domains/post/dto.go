package post

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ========================================
// REQUEST DTOs
// ========================================

// CreatePostRequest is the payload for creating a post. AuthorID and
// Slug are optional: when omitted they are filled in by the mutation
// pipeline (author from the actor, slug from the title).
type CreatePostRequest struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Excerpt  *string    `json:"excerpt,omitempty"`
	Status   Status     `json:"status"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
	Slug     *string    `json:"slug,omitempty"`
	Featured bool       `json:"featured"`
	Tags     []string   `json:"tags,omitempty"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("title is required"),
			validation.Length(TitleMinLength, TitleMaxLength),
		),
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
			validation.Length(ContentMinLength, 0),
		),
		validation.Field(&r.Excerpt,
			validation.Length(0, ExcerptMaxLength),
		),
		validation.Field(&r.Status,
			validation.Required,
			validation.In(StatusDraft, StatusPublished).Error("status must be draft or published"),
		),
		validation.Field(&r.Tags,
			validation.Each(validation.Length(1, 50)),
		),
	)
}

// UpdatePostRequest is a partial update: nil fields are left untouched.
// A non-nil empty Slug requests re-derivation from the title.
type UpdatePostRequest struct {
	Title    *string    `json:"title,omitempty"`
	Content  *string    `json:"content,omitempty"`
	Excerpt  *string    `json:"excerpt,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
	Slug     *string    `json:"slug,omitempty"`
	Featured *bool      `json:"featured,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
}

func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Length(TitleMinLength, TitleMaxLength),
		),
		validation.Field(&r.Content,
			validation.Length(ContentMinLength, 0),
		),
		validation.Field(&r.Excerpt,
			validation.Length(0, ExcerptMaxLength),
		),
		validation.Field(&r.Status,
			validation.In(StatusDraft, StatusPublished).Error("status must be draft or published"),
		),
		validation.Field(&r.Tags,
			validation.Each(validation.Length(1, 50)),
		),
	)
}

// ListPostsRequest carries list filters and pagination. The visibility
// restriction itself comes from the access evaluator, not the client.
type ListPostsRequest struct {
	Status   *Status `form:"status"`
	Tag      string  `form:"tag"`
	Featured *bool   `form:"featured"`
	Author   string  `form:"author"`
	Page     int     `form:"page"`
	Limit    int     `form:"limit"`
}

func (r *ListPostsRequest) SetDefaults() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

func (r ListPostsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.In(StatusDraft, StatusPublished).Error("status must be draft or published"),
		),
		validation.Field(&r.Author,
			validation.By(func(v interface{}) error {
				s, _ := v.(string)
				if s == "" {
					return nil
				}
				if _, err := uuid.Parse(s); err != nil {
					return validation.NewError("validation_uuid", "author must be a valid UUID")
				}
				return nil
			}),
		),
	)
}

// ========================================
// RESPONSE DTOs
// ========================================

type PostDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	Status      Status     `json:"status"`
	AuthorID    uuid.UUID  `json:"author_id"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Slug        *string    `json:"slug,omitempty"`
	Featured    bool       `json:"featured"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToDTO(p *Post) PostDTO {
	return PostDTO{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Status:      p.Status,
		AuthorID:    p.AuthorID,
		PublishedAt: p.PublishedAt,
		Slug:        p.Slug,
		Featured:    p.Featured,
		Tags:        p.Tags,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToDTOs(posts []Post) []PostDTO {
	dtos := make([]PostDTO, 0, len(posts))
	for i := range posts {
		dtos = append(dtos, ToDTO(&posts[i]))
	}
	return dtos
}

type ListPostsResponse struct {
	Posts []PostDTO       `json:"posts"`
	Meta  *PaginationMeta `json:"meta"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
