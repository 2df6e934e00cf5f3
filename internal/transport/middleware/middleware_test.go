package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.PUT("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestTimeoutSetsDeadline(t *testing.T) {
	tests := []struct {
		name        string
		timeout     time.Duration
		hasDeadline bool
	}{
		{"with timeout", time.Second, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			router := gin.New()
			router.Use(Timeout(tt.timeout))
			router.GET("/x", func(c *gin.Context) {
				_, got = c.Request.Context().Deadline()
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.hasDeadline, got)
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(Logger())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?date=2025-03-10", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
