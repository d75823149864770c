package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(secret string, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{AuthMiddleware(secret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := protectedRouter(testSecret)

	t.Run("valid token passes", func(t *testing.T) {
		token, err := GenerateAccessToken(42, "fan@example.com", RoleFan, testSecret)
		require.NoError(t, err)

		w := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "42")
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(router, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(router, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token rejected on access routes", func(t *testing.T) {
		token, err := GenerateRefreshToken(42, "fan@example.com", RoleFan, testSecret)
		require.NoError(t, err)

		w := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	t.Run("allowed role passes", func(t *testing.T) {
		router := protectedRouter(testSecret, RoleStar, RoleAdmin)
		token, err := GenerateAccessToken(2, "star@example.com", RoleStar, testSecret)
		require.NoError(t, err)

		w := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		router := protectedRouter(testSecret, RoleAdmin)
		token, err := GenerateAccessToken(1, "fan@example.com", RoleFan, testSecret)
		require.NoError(t, err)

		w := doRequest(router, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
