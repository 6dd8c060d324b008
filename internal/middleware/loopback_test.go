package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/auth/state", RequireLoopback(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": "unauthenticated"})
	})
	return r
}

func TestRequireLoopbackAllowsLocalAddresses(t *testing.T) {
	r := newRouter()

	for _, addr := range []string{"127.0.0.1:54321", "[::1]:54321"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/state", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, addr)
	}
}

func TestRequireLoopbackRejectsRemoteAddresses(t *testing.T) {
	r := newRouter()

	for _, addr := range []string{"10.1.2.3:54321", "192.168.0.10:80", "not-an-addr"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/state", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, addr)
	}
}
