package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"blog-backend/internal/domains/user"
	"blog-backend/internal/shared/middleware"
	"blog-backend/internal/shared/response"
)

// UserHandler is the HTTP layer for the users collection. Stateless: it
// binds, validates, resolves the actor, and delegates to the service.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register handles POST /auth/register (public signup).
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	dto, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/"+dto.ID.String())
	response.Success(c, http.StatusCreated, dto)
}

// Login handles POST /auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	resp.RefreshToken = "" // cookie only, never in the body

	response.Success(c, http.StatusOK, resp)
}

// RefreshToken handles POST /auth/refresh. The refresh token travels in an
// httpOnly cookie, not the body.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		response.Unauthorized(c, "missing refresh token")
		return
	}

	resp, err := h.service.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setRefreshCookie(c, resp.RefreshToken)
	resp.RefreshToken = ""

	response.Success(c, http.StatusOK, resp)
}

// Logout handles POST /auth/logout: clears the refresh cookie. Access
// tokens are short-lived and simply expire.
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetCookie("refresh_token", "", -1, "/", "", true, true)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *UserHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		"refresh_token",
		token,
		7*24*3600,
		"/",
		"",
		true,
		true,
	)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	dto, err := h.service.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// UpdateMe handles PUT /users/me.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var req user.UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}

	dto, err := h.service.Update(c.Request.Context(), actor, actor.ID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// GetByID handles GET /users/:id (owner-or-admin).
func (h *UserHandler) GetByID(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	dto, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// Update handles PUT /users/:id (owner for profile fields, admin for all).
func (h *UserHandler) Update(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}

	dto, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// AdminCreate handles POST /admin/users.
func (h *UserHandler) AdminCreate(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var req user.AdminCreateUserRequest
	if !h.bind(c, &req) {
		return
	}

	dto, err := h.service.AdminCreate(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// ListUsers handles GET /admin/users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var req user.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}

	resp, err := h.service.List(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, resp.Users, &response.Meta{
		Page:  resp.Pagination.CurrentPage,
		Limit: resp.Pagination.PerPage,
		Total: resp.Pagination.Total,
	})
}

// UpdateRole handles PUT /admin/users/:id/role.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if !h.bind(c, &req) {
		return
	}

	dto, err := h.service.UpdateRole(c.Request.Context(), actor, id, req.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

// Delete handles DELETE /admin/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
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
// HELPERS
// ========================================

type validatable interface {
	Validate() error
}

func (h *UserHandler) bind(c *gin.Context, req validatable) bool {
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

func (h *UserHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps domain errors to the HTTP taxonomy.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		response.ValidationError(c, fieldErrs)
		return
	}

	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, "email already exists")
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, user.ErrInvalidToken):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, user.ErrUnauthenticated):
		response.Unauthorized(c, "authentication required")
	case errors.Is(err, user.ErrForbidden):
		response.Forbidden(c, "insufficient permissions")
	case errors.Is(err, user.ErrTooManyAttempts):
		response.ErrorResponse(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", err.Error())
	case errors.Is(err, user.ErrInvalidRole):
		response.BadRequest(c, err.Error())
	default:
		response.InternalServerError(c, "something went wrong")
	}
}
