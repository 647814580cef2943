package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/access"
	"blog-backend/pkg/jwt"
)

func testManager() *jwt.Manager {
	return jwt.NewManager("test-secret", 15*time.Minute, 72*time.Hour)
}

// whoamiRouter mounts a handler behind the given middlewares that echoes
// the resolved actor back as JSON.
func whoamiRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlers := append(mw, func(c *gin.Context) {
		actor := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"id":            actor.ID.String(),
			"role":          string(actor.Role),
			"authenticated": actor.Authenticated(),
		})
	})
	r.GET("/whoami", handlers...)

	return r
}

func doGet(t *testing.T, r *gin.Engine, authHeader string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func accessToken(t *testing.T, m *jwt.Manager, id uuid.UUID, role string) string {
	t.Helper()
	token, err := m.GenerateAccessToken(id.String(), "actor@example.com", role)
	require.NoError(t, err)
	return token
}

// ========================================
// REQUIRED AUTH
// ========================================

func TestAuthMiddleware_ValidToken(t *testing.T) {
	m := testManager()
	r := whoamiRouter(AuthMiddleware(m))

	id := uuid.New()
	w, body := doGet(t, r, "Bearer "+accessToken(t, m, id, string(access.RoleAuthor)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, string(access.RoleAuthor), body["role"])
	assert.Equal(t, true, body["authenticated"])
}

func TestAuthMiddleware_RejectsBadCredentials(t *testing.T) {
	m := testManager()
	other := jwt.NewManager("other-secret", 15*time.Minute, 72*time.Hour)
	r := whoamiRouter(AuthMiddleware(m))

	id := uuid.New()
	refresh, err := m.GenerateRefreshToken(id.String())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer"},
		{"garbage token", "Bearer not-a-jwt"},
		{"refresh token on an access route", "Bearer " + refresh},
		{"token signed with a different secret", "Bearer " + accessToken(t, other, id, string(access.RoleAuthor))},
		{"token carrying an out-of-set role", "Bearer " + accessToken(t, m, id, "superuser")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doGet(t, r, tt.header)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			errObj, ok := body["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "UNAUTHENTICATED", errObj["code"])
		})
	}
}

// ========================================
// OPTIONAL AUTH
// ========================================

func TestOptionalAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	m := testManager()
	r := whoamiRouter(OptionalAuthMiddleware(m))

	w, body := doGet(t, r, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil.String(), body["id"])
	assert.Equal(t, false, body["authenticated"])
}

func TestOptionalAuthMiddleware_InvalidTokenDegradesToAnonymous(t *testing.T) {
	m := testManager()
	r := whoamiRouter(OptionalAuthMiddleware(m))

	// A stale or tampered token must not 401 a public route; the request
	// simply proceeds unauthenticated.
	w, body := doGet(t, r, "Bearer not-a-jwt")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["authenticated"])
}

func TestOptionalAuthMiddleware_ValidTokenResolvesActor(t *testing.T) {
	m := testManager()
	r := whoamiRouter(OptionalAuthMiddleware(m))

	id := uuid.New()
	w, body := doGet(t, r, "Bearer "+accessToken(t, m, id, string(access.RoleMember)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), body["id"])
	assert.Equal(t, string(access.RoleMember), body["role"])
}

// ========================================
// ADMIN GATE
// ========================================

func TestAdminMiddleware_RoleGate(t *testing.T) {
	m := testManager()
	evaluator := access.NewEvaluator()
	r := whoamiRouter(AuthMiddleware(m), AdminMiddleware(evaluator))

	t.Run("member is forbidden", func(t *testing.T) {
		w, body := doGet(t, r, "Bearer "+accessToken(t, m, uuid.New(), string(access.RoleMember)))
		require.Equal(t, http.StatusForbidden, w.Code)

		errObj, ok := body["error"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "FORBIDDEN", errObj["code"])
	})

	t.Run("author is forbidden", func(t *testing.T) {
		w, _ := doGet(t, r, "Bearer "+accessToken(t, m, uuid.New(), string(access.RoleAuthor)))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		w, _ := doGet(t, r, "Bearer "+accessToken(t, m, uuid.New(), string(access.RoleAdmin)))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
