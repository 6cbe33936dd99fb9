// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	authService "github.com/allisson/treatment-register/internal/auth/service"
	authUseCase "github.com/allisson/treatment-register/internal/auth/usecase"
	"github.com/allisson/treatment-register/internal/config"
	cryptoService "github.com/allisson/treatment-register/internal/crypto/service"
	"github.com/allisson/treatment-register/internal/database"
	erasureHTTP "github.com/allisson/treatment-register/internal/erasure/http"
	erasureService "github.com/allisson/treatment-register/internal/erasure/service"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
	"github.com/allisson/treatment-register/internal/http"
	"github.com/allisson/treatment-register/internal/metrics"
	notificationHTTP "github.com/allisson/treatment-register/internal/notification/http"
	notificationUseCase "github.com/allisson/treatment-register/internal/notification/usecase"
	outboxUseCase "github.com/allisson/treatment-register/internal/outbox/usecase"
	treatmentHTTP "github.com/allisson/treatment-register/internal/treatment/http"
	treatmentRepository "github.com/allisson/treatment-register/internal/treatment/repository"
	treatmentUseCase "github.com/allisson/treatment-register/internal/treatment/usecase"
	userHTTP "github.com/allisson/treatment-register/internal/user/http"
	userRepository "github.com/allisson/treatment-register/internal/user/repository"
	userUseCase "github.com/allisson/treatment-register/internal/user/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Crypto
	kmsService  cryptoService.KMSService
	fieldCipher *cryptoService.FieldCipher
	auditSigner erasureService.AuditSigner

	// Auth
	passwordService authService.PasswordService
	tokenService    authService.TokenService
	tokenUseCase    authUseCase.TokenUseCase
	tokenHandler    *authHTTP.TokenHandler

	// Users
	userRepo    userRepository.Repository
	userUseCase userUseCase.UseCase
	userHandler *userHTTP.UserHandler

	// Treatments
	treatmentRepo    treatmentRepository.Repository
	treatmentUseCase treatmentUseCase.UseCase
	treatmentHandler *treatmentHTTP.TreatmentHandler

	// Notifications
	notificationRepo    notificationUseCase.NotificationRepository
	notificationUseCase notificationUseCase.UseCase
	notificationHandler *notificationHTTP.NotificationHandler

	// Erasure
	deletionAuditRepo     erasureUseCase.DeletionAuditRepository
	deletionAuditUseCase  erasureUseCase.DeletionAuditUseCase
	erasureUseCase        erasureUseCase.ErasureUseCase
	retentionPurgeUseCase erasureUseCase.RetentionPurgeUseCase
	erasureHandler        *erasureHTTP.ErasureHandler
	deletionAuditHandler  *erasureHTTP.DeletionAuditHandler

	// Outbox
	outboxRepo    outboxUseCase.OutboxEventRepository
	outboxUseCase outboxUseCase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                        sync.Mutex
	loggerInit                sync.Once
	dbInit                    sync.Once
	txManagerInit             sync.Once
	metricsProviderInit       sync.Once
	businessMetricsInit       sync.Once
	kmsServiceInit            sync.Once
	fieldCipherInit           sync.Once
	auditSignerInit           sync.Once
	passwordServiceInit       sync.Once
	tokenServiceInit          sync.Once
	tokenUseCaseInit          sync.Once
	tokenHandlerInit          sync.Once
	userRepoInit              sync.Once
	userUseCaseInit           sync.Once
	userHandlerInit           sync.Once
	treatmentRepoInit         sync.Once
	treatmentUseCaseInit      sync.Once
	treatmentHandlerInit      sync.Once
	notificationRepoInit      sync.Once
	notificationUseCaseInit   sync.Once
	notificationHandlerInit   sync.Once
	deletionAuditRepoInit     sync.Once
	deletionAuditUseCaseInit  sync.Once
	erasureUseCaseInit        sync.Once
	retentionPurgeUseCaseInit sync.Once
	erasureHandlerInit        sync.Once
	deletionAuditHandlerInit  sync.Once
	outboxRepoInit            sync.Once
	outboxUseCaseInit         sync.Once
	httpServerInit            sync.Once
	metricsServerInit         sync.Once
	initErrors                map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// lazy runs init once and remembers its error under name so later calls fail the same way.
func (c *Container) lazy(once *sync.Once, name string, init func() error) error {
	var err error
	once.Do(func() {
		err = init()
		if err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
		}
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	err := c.lazy(&c.dbInit, "db", func() (err error) {
		c.db, err = c.initDB()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	err := c.lazy(&c.txManagerInit, "txManager", func() (err error) {
		c.txManager, err = c.initTxManager()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus backed meter provider. Returns nil when metrics
// are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	err := c.lazy(&c.metricsProviderInit, "metricsProvider", func() (err error) {
		if !c.config.MetricsEnabled {
			return nil
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is returned
// when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.lazy(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server with every route configured.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.lazy(&c.httpServerInit, "httpServer", func() (err error) {
		c.httpServer, err = c.initHTTPServer(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server. Returns nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.lazy(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			return nil
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initHTTPServer creates the HTTP server and mounts every handler.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for http server: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	var handlers http.Handlers
	if handlers.Token, err = c.TokenHandler(); err != nil {
		return nil, fmt.Errorf("failed to get token handler: %w", err)
	}
	if handlers.User, err = c.UserHandler(); err != nil {
		return nil, fmt.Errorf("failed to get user handler: %w", err)
	}
	if handlers.Erasure, err = c.ErasureHandler(); err != nil {
		return nil, fmt.Errorf("failed to get erasure handler: %w", err)
	}
	if handlers.DeletionAudit, err = c.DeletionAuditHandler(); err != nil {
		return nil, fmt.Errorf("failed to get deletion audit handler: %w", err)
	}
	if handlers.Treatment, err = c.TreatmentHandler(); err != nil {
		return nil, fmt.Errorf("failed to get treatment handler: %w", err)
	}
	if handlers.Notification, err = c.NotificationHandler(); err != nil {
		return nil, fmt.Errorf("failed to get notification handler: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(ctx, c.config, handlers, tokenService, cipher, provider)
	return server, nil
}
