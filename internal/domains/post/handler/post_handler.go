package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blog-backend/internal/domains/post"
	"blog-backend/internal/shared/middleware"
	"blog-backend/internal/shared/response"
)

// PostHandler is the HTTP layer for the posts collection.
type PostHandler struct {
	service post.Service
}

func NewPostHandler(service post.Service) *PostHandler {
	return &PostHandler{service: service}
}

// ========================================
// WRITE ENDPOINTS
// ========================================

// Create handles POST /posts.
func (h *PostHandler) Create(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var req post.CreatePostRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/posts/"+p.ID.String())
	response.Success(c, http.StatusCreated, post.ToDTO(p))
}

// Update handles PUT /posts/:id.
func (h *PostHandler) Update(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req post.UpdatePostRequest
	if !h.bind(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post.ToDTO(p))
}

// Delete handles DELETE /posts/:id.
func (h *PostHandler) Delete(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// ========================================
// READ ENDPOINTS
// ========================================

// List handles GET /posts. Visibility narrows by actor: anonymous and
// members see published posts only, authors additionally their own.
func (h *PostHandler) List(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var req post.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	posts, total, err := h.service.List(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	req.SetDefaults()
	response.SuccessWithMeta(c, http.StatusOK, post.ToDTOs(posts), &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

// GetByID handles GET /posts/:id.
func (h *PostHandler) GetByID(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post.ToDTO(p))
}

// GetBySlug handles GET /posts/slug/:slug.
func (h *PostHandler) GetBySlug(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "missing slug")
		return
	}

	p, err := h.service.GetBySlug(c.Request.Context(), actor, slug)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, post.ToDTO(p))
}

// ========================================
// HELPERS
// ========================================

type validatable interface {
	Validate() error
}

func (h *PostHandler) bind(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		var fieldErrs validation.Errors
		if errors.As(err, &fieldErrs) {
			response.ValidationError(c, fieldErrs)
		} else {
			response.BadRequest(c, err.Error())
		}
		return false
	}
	return true
}

func (h *PostHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps domain errors to the HTTP taxonomy.
func (h *PostHandler) handleError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		response.ValidationError(c, fieldErrs)
		return
	}

	switch {
	case errors.Is(err, post.ErrPostNotFound):
		response.NotFound(c, "post not found")
	case errors.Is(err, post.ErrSlugConflict):
		response.Conflict(c, "slug already exists")
	case errors.Is(err, post.ErrUnauthenticated):
		response.Unauthorized(c, "authentication required")
	case errors.Is(err, post.ErrForbidden):
		response.Forbidden(c, "insufficient permissions")
	case errors.Is(err, post.ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	default:
		response.InternalServerError(c, "something went wrong")
	}
}
