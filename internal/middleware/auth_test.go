package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware("secret"), func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	r.GET("/stats", AuthMiddleware("secret"), RoleMiddleware(model.Editor), func(c *gin.Context) {
		util.Success(c, "ok")
	})
	return r
}

func request(t *testing.T, r *gin.Engine, path string, userID string, role model.UserRole) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		tok, err := util.GenerateJWT(userID, role, "", "secret", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, request(t, r, "/me", "", ""))
	assert.Equal(t, http.StatusOK, request(t, r, "/me", "user-1", model.Member))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleMiddleware(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusForbidden, request(t, r, "/stats", "user-1", model.Member))
	assert.Equal(t, http.StatusOK, request(t, r, "/stats", "user-2", model.Editor))
	assert.Equal(t, http.StatusOK, request(t, r, "/stats", "root", model.Admin))
}
