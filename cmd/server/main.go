package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinic/backend/internal/application/cashier"
	"github.com/clinic/backend/internal/infrastructure/auth"
	"github.com/clinic/backend/internal/infrastructure/cache"
	"github.com/clinic/backend/internal/infrastructure/config"
	"github.com/clinic/backend/internal/infrastructure/ledger"
	"github.com/clinic/backend/internal/infrastructure/logger"
	"github.com/clinic/backend/internal/infrastructure/persistence"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/clinic/backend/internal/interfaces/http/handler"
	"github.com/clinic/backend/internal/interfaces/http/middleware"
	"github.com/clinic/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting clinic cashier backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Local commit journal (optional). Tenders commit fine without it, but
	// partially committed attempts are then only visible in the ledger.
	var journal cashier.CommitJournal
	var journalDB *persistence.Database
	if cfg.Journal.Enabled {
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		journalDB, err = persistence.NewDatabase(cfg.Journal, gormLog)
		if err != nil {
			log.Fatal("Failed to open commit journal", zap.Error(err))
		}
		defer func() {
			if err := journalDB.Close(); err != nil {
				log.Error("Error closing commit journal", zap.Error(err))
			}
		}()
		journal = persistence.NewGormCommitJournal(journalDB.DB)
		log.Info("Commit journal opened", zap.String("path", cfg.Journal.Path))
	}

	// Stats cache (optional). A missing redis degrades to passthrough.
	var statsCache cashier.StatsCache
	if redisCache, err := cache.NewRedisStatsCache(cfg.Redis); err != nil {
		log.Warn("Stats cache unavailable, stats are uncached", zap.Error(err))
	} else {
		statsCache = redisCache
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing stats cache", zap.Error(err))
			}
		}()
		log.Info("Stats cache connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Remote payment ledger client
	ledgerClient := ledger.NewClient(cfg.Ledger, log)
	log.Info("Ledger client configured", zap.String("base_url", cfg.Ledger.BaseURL))

	// Application services
	paymentService := cashier.NewPaymentService(ledgerClient, journal, log)
	tenderService := cashier.NewTenderService(ledgerClient, paymentService, log)
	statsService := cashier.NewStatsService(ledgerClient, statsCache, log)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	credentialVerifier := auth.NewCredentialVerifier(cfg.Auth)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtService, credentialVerifier, log)
	cashierHandler := handler.NewCashierHandler(tenderService, paymentService, statsService, log)
	statsHandler := handler.NewStatsHandler(statsService, log)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request id, panic recovery, request logging,
	// security headers, CORS, tracing
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	// Health check endpoint (outside API versioning and auth)
	engine.GET("/healthz", healthHandler(journalDB))

	// API routes behind JWT auth
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Register(authHandler).
		Register(cashierHandler).
		Register(statsHandler).
		Register(systemHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness and, when the commit journal is
// enabled, its availability. The remote ledger is deliberately not probed
// here so a ledger outage does not mark this process unhealthy.
func healthHandler(journalDB *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if journalDB != nil {
			if err := journalDB.Ping(); err != nil {
				reqLog := logger.GetGinLogger(c)
				reqLog.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"time":    time.Now().Format(time.RFC3339),
					"journal": "error",
				})
				return
			}
			status["journal"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	}
}
