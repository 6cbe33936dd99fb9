// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	authService "github.com/allisson/treatment-register/internal/auth/service"
	"github.com/allisson/treatment-register/internal/config"
	erasureHTTP "github.com/allisson/treatment-register/internal/erasure/http"
	"github.com/allisson/treatment-register/internal/metrics"
	notificationHTTP "github.com/allisson/treatment-register/internal/notification/http"
	treatmentHTTP "github.com/allisson/treatment-register/internal/treatment/http"
	userHTTP "github.com/allisson/treatment-register/internal/user/http"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// CipherChecker verifies the field cipher can round-trip a value.
type CipherChecker interface {
	SelfTest() bool
}

// Handlers groups the module handlers mounted by SetupRouter.
type Handlers struct {
	Token         *authHTTP.TokenHandler
	User          *userHTTP.UserHandler
	Erasure       *erasureHTTP.ErasureHandler
	DeletionAudit *erasureHTTP.DeletionAuditHandler
	Treatment     *treatmentHTTP.TreatmentHandler
	Notification  *notificationHTTP.NotificationHandler
}

// Server represents the HTTP server
type Server struct {
	db     *sql.DB
	cipher CipherChecker
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. SetupRouter must be called before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin router with the middleware stack and every v1 route.
// ctx bounds the lifetime of the rate limiter cleanup goroutines.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	tokenService authService.TokenService,
	cipher CipherChecker,
	metricsProvider *metrics.Provider,
) {
	s.cipher = cipher

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			metricsProvider.MeterProvider(),
			cfg.MetricsNamespace,
			"/health",
			"/ready",
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	token := v1.Group("/token")
	if cfg.RateLimitTokenEnabled {
		token.Use(authHTTP.TokenRateLimitMiddleware(
			ctx,
			cfg.RateLimitTokenRequestsPerSec,
			cfg.RateLimitTokenBurst,
			s.logger,
		))
	}
	token.POST("", handlers.Token.IssueTokenHandler)

	authenticated := v1.Group("")
	authenticated.Use(authHTTP.AuthenticationMiddleware(tokenService, s.logger))
	if cfg.RateLimitEnabled {
		authenticated.Use(authHTTP.RateLimitMiddleware(
			ctx,
			cfg.RateLimitRequestsPerSec,
			cfg.RateLimitBurst,
			s.logger,
		))
	}

	adminOnly := authHTTP.RequireRole(s.logger, userDomain.RoleAdmin)

	users := authenticated.Group("/users", adminOnly)
	{
		users.POST("", handlers.User.CreateHandler)
		users.GET("", handlers.User.ListHandler)
		users.GET("/:id", handlers.User.GetHandler)
		users.PUT("/:id", handlers.User.UpdateHandler)
		users.DELETE("/:id", handlers.Erasure.EraseHandler)
		users.GET("/:id/erasure-preview", handlers.Erasure.PreviewHandler)
	}

	audits := authenticated.Group("/deletion-audits", adminOnly)
	{
		audits.GET("", handlers.DeletionAudit.ListHandler)
		audits.GET("/statistics", handlers.DeletionAudit.StatisticsHandler)
		audits.GET("/:id", handlers.DeletionAudit.GetHandler)
	}

	// Role checks on treatments depend on ownership and live in the use case.
	treatments := authenticated.Group("/treatments")
	{
		treatments.POST("", handlers.Treatment.CreateHandler)
		treatments.GET("", handlers.Treatment.ListHandler)
		treatments.GET("/:id", handlers.Treatment.GetHandler)
		treatments.PUT("/:id", handlers.Treatment.UpdateHandler)
		treatments.DELETE("/:id", handlers.Treatment.DeleteHandler)
		treatments.POST("/:id/submit", handlers.Treatment.SubmitHandler)
		treatments.POST("/:id/validate", handlers.Treatment.ValidateHandler)
		treatments.POST("/:id/request-changes", handlers.Treatment.RequestChangesHandler)
		treatments.POST("/:id/archive", handlers.Treatment.ArchiveHandler)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.ListHandler)
		notifications.POST("/:id/read", handlers.Notification.MarkReadHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router is not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports that the process is alive.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database answers a ping and the field
// cipher passes its self-test.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok", "cipher": "ok"}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("database readiness check failed", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		}
	}

	if s.cipher == nil || !s.cipher.SelfTest() {
		components["cipher"] = "error"
		ready = false
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
