package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"blog-backend/internal/shared/middleware"
	"blog-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.CORS.AllowedOrigins),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupPostRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.RefreshToken)
		auth.POST("/logout", middleware.AuthMiddleware(c.JWTManager), c.UserHandler.Logout)
	}
}

// ========================================
// POST ROUTES
// ========================================
func setupPostRoutes(v1 *gin.RouterGroup, c *container.Container) {
	// Reads are public with optional auth: an authenticated author sees
	// their own drafts where an anonymous visitor sees published only.
	posts := v1.Group("/posts")
	posts.Use(middleware.OptionalAuthMiddleware(c.JWTManager))
	{
		posts.GET("", c.PostHandler.List)
		posts.GET("/:id", c.PostHandler.GetByID)
		posts.GET("/slug/:slug", c.PostHandler.GetBySlug)
	}

	writes := v1.Group("/posts")
	writes.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		writes.POST("", c.PostHandler.Create)
		writes.PUT("/:id", c.PostHandler.Update)
		writes.DELETE("/:id", c.PostHandler.Delete)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/me", c.UserHandler.GetMe)
		users.PUT("/me", c.UserHandler.UpdateMe)
		users.GET("/:id", c.UserHandler.GetByID)
		users.PUT("/:id", c.UserHandler.Update)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(c.Evaluator),
	)
	{
		admin.GET("/users", c.UserHandler.ListUsers)
		admin.POST("/users", c.UserHandler.AdminCreate)
		admin.PUT("/users/:id/role", c.UserHandler.UpdateRole)
		admin.DELETE("/users/:id", c.UserHandler.Delete)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
			"services":  gin.H{},
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Redis is optional; a dead cache degrades but never fails the
		// health probe on its own.
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
