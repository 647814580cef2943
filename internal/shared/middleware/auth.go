package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blog-backend/internal/access"
	"blog-backend/internal/shared/response"
	"blog-backend/pkg/jwt"
)

const actorKey = "actor"

// AuthMiddleware verifies the bearer token and places the resolved actor
// into the gin context. Requests without a valid token are rejected with
// 401 before any handler runs.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := resolveActor(c, jwtManager)
		if !ok {
			response.Unauthorized(c, "missing or invalid access token")
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the actor when a token is present but
// lets anonymous requests through. Used on public read routes where an
// authenticated author sees more than an anonymous visitor.
func OptionalAuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := resolveActor(c, jwtManager); ok {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}

// ActorFromContext returns the request actor. The zero value is the
// anonymous actor; every evaluator and service call receives it explicitly.
func ActorFromContext(c *gin.Context) access.Actor {
	v, exists := c.Get(actorKey)
	if !exists {
		return access.Anonymous
	}
	actor, ok := v.(access.Actor)
	if !ok {
		return access.Anonymous
	}
	return actor
}

func resolveActor(c *gin.Context, jwtManager *jwt.Manager) (access.Actor, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return access.Anonymous, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return access.Anonymous, false
	}

	claims, err := jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		return access.Anonymous, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return access.Anonymous, false
	}

	role := access.Role(claims.Role)
	if !role.Valid() {
		// A token minted before a role rename, or tampered with.
		return access.Anonymous, false
	}

	return access.Actor{ID: userID, Role: role}, true
}
