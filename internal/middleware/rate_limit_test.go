package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCallerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("keys authenticated callers by user id", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		userID := uuid.New()
		c.Set("user_id", userID)

		assert.Equal(t, userID.String(), callerKey(c))
	})

	t.Run("keys anonymous callers by client ip", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = "203.0.113.7:5000"

		assert.Equal(t, "203.0.113.7", callerKey(c))
	})
}
