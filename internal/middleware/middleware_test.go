package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"coursepay-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDSetsHeaderAndContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	var fromContext string
	r := gin.New()
	r.Use(RequestID(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		fromContext = logging.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, got)
	assert.Equal(t, got, fromContext)
	assert.Equal(t, 1, logs.FilterMessage("request completed").Len())
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{name: "valid key", configured: "secret", header: "secret", want: http.StatusOK},
		{name: "missing key", configured: "secret", header: "", want: http.StatusUnauthorized},
		{name: "wrong key", configured: "secret", header: "nope", want: http.StatusUnauthorized},
		{name: "not configured", configured: "", header: "anything", want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AdminAuthMiddleware(tt.configured))
			r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
