package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authService "github.com/allisson/treatment-register/internal/auth/service"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/httputil"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// AuthenticationMiddleware verifies the "Authorization: Bearer <jwt>" header and stores
// the principal in the request context. Missing, malformed, forged or expired tokens
// are rejected with 401.
func AuthenticationMiddleware(tokenService authService.TokenService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		const bearerPrefix = "bearer "
		if len(authHeader) <= len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		principal, err := tokenService.Parse(strings.TrimSpace(authHeader[len(bearerPrefix):]))
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// RequireRole allows the request only when the principal holds one of roles.
// It must run after AuthenticationMiddleware.
func RequireRole(logger *slog.Logger, roles ...userDomain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c.Request.Context())
		if !ok {
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !principal.HasAnyRole(roles...) {
			logger.Debug("authorization failed",
				slog.String("user_id", principal.UserID.String()),
				slog.Any("required_roles", roles),
			)
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}
