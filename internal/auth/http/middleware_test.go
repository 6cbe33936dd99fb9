package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	authService "github.com/allisson/treatment-register/internal/auth/service"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTokenService(t *testing.T) authService.TokenService {
	t.Helper()
	svc, err := authService.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	return svc
}

func issue(t *testing.T, svc authService.TokenService, roles ...userDomain.Role) (string, uuid.UUID) {
	t.Helper()
	id := uuid.Must(uuid.NewV7())
	token, _, err := svc.Issue(&authDomain.Principal{UserID: id, Roles: roles}, time.Now())
	require.NoError(t, err)
	return token, id
}

func newProtectedRouter(svc authService.TokenService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthenticationMiddleware(svc, discardLogger())}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		principal, _ := GetPrincipal(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": principal.UserID.String()})
	})
	router.GET("/protected", handlers...)
	return router
}

func get(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticationMiddleware(t *testing.T) {
	svc := newTokenService(t)
	router := newProtectedRouter(svc)

	t.Run("Success", func(t *testing.T) {
		token, id := issue(t, svc, userDomain.RoleUser)

		w := get(router, "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, id.String(), body["user_id"])
	})

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		token, _ := issue(t, svc)
		assert.Equal(t, http.StatusOK, get(router, "bearer "+token).Code)
	})

	t.Run("Error_Rejected", func(t *testing.T) {
		expiredSvc, err := authService.NewTokenService("0123456789abcdef0123456789abcdef", -time.Minute)
		require.NoError(t, err)
		expired, _ := issue(t, expiredSvc)

		for name, header := range map[string]string{
			"missing":   "",
			"basic":     "Basic dXNlcjpwYXNz",
			"empty":     "Bearer ",
			"forged":    "Bearer not.a.jwt",
			"expired":   "Bearer " + expired,
			"no scheme": expired,
		} {
			t.Run(name, func(t *testing.T) {
				w := get(router, header)
				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Contains(t, w.Body.String(), "unauthorized")
			})
		}
	})
}

func TestRequireRole(t *testing.T) {
	svc := newTokenService(t)
	router := newProtectedRouter(svc, RequireRole(discardLogger(), userDomain.RoleAdmin, userDomain.RoleDPO))

	dpo, _ := issue(t, svc, userDomain.RoleUser, userDomain.RoleDPO)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+dpo).Code)

	user, _ := issue(t, svc, userDomain.RoleUser)
	assert.Equal(t, http.StatusForbidden, get(router, "Bearer "+user).Code)

	t.Run("NoPrincipal", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/protected", RequireRole(discardLogger(), userDomain.RoleAdmin), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	})
}

func TestTokenRateLimitMiddleware(t *testing.T) {
	defer goleak.VerifyNone(t)
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := gin.New()
	router.POST("/token", TokenRateLimitMiddleware(ctx, 1, 2, discardLogger()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/token", nil)
		req.RemoteAddr = ip + ":1234"
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusCreated, send("10.0.0.2").Code)

	cancel()
}

func TestRateLimitMiddleware(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newTokenService(t)
	router := newProtectedRouter(svc, RateLimitMiddleware(ctx, 1, 1, discardLogger()))

	first, _ := issue(t, svc)
	second, _ := issue(t, svc)

	assert.Equal(t, http.StatusOK, get(router, "Bearer "+first).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "Bearer "+first).Code)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+second).Code)

	cancel()
}
