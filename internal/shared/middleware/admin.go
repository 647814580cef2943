package middleware

import (
	"github.com/gin-gonic/gin"

	"blog-backend/internal/access"
	"blog-backend/internal/shared/response"
)

// AdminMiddleware gates the admin surface. Runs after AuthMiddleware; the
// decision goes through the evaluator so the admin-enter rule lives in one
// place.
func AdminMiddleware(evaluator access.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)

		decision := evaluator.Evaluate(access.OpAdmin, access.CollectionUsers, actor)
		if !decision.Allowed() {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
