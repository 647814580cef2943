package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"blog-backend/internal/shared/response"
)

// Recovery converts a handler panic into a 500 carrying the standard
// error envelope. The panic value is logged with the request id so the
// failing request can be traced.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString("request_id")).
					Str("path", c.Request.URL.Path).
					Interface("panic", r).
					Msg("panic recovered")

				response.InternalServerError(c, "something went wrong")
				c.Abort()
			}
		}()

		c.Next()
	}
}
