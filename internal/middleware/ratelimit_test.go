package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newLimitedRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	limiter := NewIPRateLimiter(rps, burst, zap.NewNop())
	router.GET("/limited", limiter.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestIPRateLimiter(t *testing.T) {
	t.Run("突发额度内放行", func(t *testing.T) {
		router := newLimitedRouter(1, 3)

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("超出额度返回429", func(t *testing.T) {
		router := newLimitedRouter(0.001, 1)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("不同IP互不影响", func(t *testing.T) {
		router := newLimitedRouter(0.001, 1)

		reqA := httptest.NewRequest(http.MethodGet, "/limited", nil)
		reqA.RemoteAddr = "10.0.0.1:1234"
		reqB := httptest.NewRequest(http.MethodGet, "/limited", nil)
		reqB.RemoteAddr = "10.0.0.2:1234"

		wA := httptest.NewRecorder()
		router.ServeHTTP(wA, reqA)
		assert.Equal(t, http.StatusOK, wA.Code)

		wB := httptest.NewRecorder()
		router.ServeHTTP(wB, reqB)
		assert.Equal(t, http.StatusOK, wB.Code)
	})
}
