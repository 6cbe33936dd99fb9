package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsRouter(t *testing.T, skipPaths ...string) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app", skipPaths...))
	return router, provider
}

func serve(router *gin.Engine, method, path string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	t.Run("Success_RecordsByRoutePattern", func(t *testing.T) {
		router, provider := newMetricsRouter(t)
		router.GET("/v1/users/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
		})

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/users/123"))
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/users/456"))

		output := scrape(t, provider)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="GET".*path="/v1/users/:id".*status_code="200"`, `2`)
		assert.NotContains(t, output, "/v1/users/123")
	})

	t.Run("Success_RecordsStatusCodes", func(t *testing.T) {
		router, provider := newMetricsRouter(t)
		router.POST("/v1/treatments", func(c *gin.Context) {
			c.JSON(http.StatusCreated, gin.H{})
		})
		router.DELETE("/v1/users/:id", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		})

		assert.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/v1/treatments"))
		assert.Equal(t, http.StatusForbidden, serve(router, http.MethodDelete, "/v1/users/1"))

		output := scrape(t, provider)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="POST".*path="/v1/treatments".*status_code="201"`, `1`)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="DELETE".*path="/v1/users/:id".*status_code="403"`, `1`)
	})

	t.Run("Success_SkipsConfiguredPaths", func(t *testing.T) {
		router, provider := newMetricsRouter(t, "/health")
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health"))

		output := scrape(t, provider)
		assert.NotContains(t, output, `path="/health"`)
	})

	t.Run("Success_UnmatchedRouteIsUnknown", func(t *testing.T) {
		router, provider := newMetricsRouter(t)

		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nope"))

		output := scrape(t, provider)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`path="unknown".*status_code="404"`, `1`)
	})
}

func TestRoutePattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "RoutePattern", input: "/v1/users/:id", expected: "/v1/users/:id"},
		{name: "EmptyPath", input: "", expected: "unknown"},
		{name: "RootPath", input: "/", expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, routePattern(tt.input))
		})
	}
}
