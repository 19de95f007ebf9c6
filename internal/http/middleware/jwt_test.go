package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(admins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-secret", time.Hour)

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(ContextUserID), "wallet": c.GetString(ContextWallet)})
	})
	r.GET("/admin", JWT(), AdminOnly(admins), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := newAuthRouter()
	token, err := service.GenerateJWT(42, "0xabc")
	require.NoError(t, err)

	w := get(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"wallet":"0xabc"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)
}

func TestAdminOnly(t *testing.T) {
	r := newAuthRouter("0xADMIN")

	admin, err := service.GenerateJWT(1, "0xadmin")
	require.NoError(t, err)
	player, err := service.GenerateJWT(2, "0xplayer")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", player).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
}
