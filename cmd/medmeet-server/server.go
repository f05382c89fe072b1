package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medmeet/medmeet/internal/config"
	"github.com/medmeet/medmeet/internal/domain/appointment"
	"github.com/medmeet/medmeet/internal/domain/directory"
	"github.com/medmeet/medmeet/internal/platform/auth"
	"github.com/medmeet/medmeet/internal/platform/db"
	"github.com/medmeet/medmeet/internal/platform/middleware"
	"github.com/medmeet/medmeet/internal/platform/telemetry"
	"github.com/medmeet/medmeet/pkg/envelope"
)

const version = "0.1.0"

// stores is the injected storage handle for one process lifetime.
type stores struct {
	requests  appointment.RequestRepository
	responses appointment.ResponseRepository
	tx        appointment.Transactor
	doctors   directory.DoctorRepository
	health    echo.HandlerFunc
	close     func()
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		URL:         cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		PingTimeout: cfg.StoreTimeout,
	}
}

func openStores(ctx context.Context, cfg *config.Config, metrics *telemetry.Collector, logger zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return newMemoryStores(ctx, logger), nil
	}

	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return nil, err
	}
	metrics.RegisterPool(pool)
	logger.Info().Msg("connected to database")

	return &stores{
		requests:  appointment.NewRequestRepoPG(pool),
		responses: appointment.NewResponseRepoPG(pool),
		tx:        db.NewTransactor(pool),
		doctors:   directory.NewDoctorRepoPG(pool),
		health:    db.HealthHandler(pool, cfg.StoreTimeout),
		close:     pool.Close,
	}, nil
}

// newMemoryStores backs the service with process memory and a generated
// directory. Data does not survive a restart.
func newMemoryStores(ctx context.Context, logger zerolog.Logger) *stores {
	mem := appointment.NewMemoryStore()
	doctors := directory.NewMemoryRepo()
	if _, err := directory.Seed(ctx, doctors, 1, 20); err != nil {
		logger.Warn().Err(err).Msg("failed to seed in-memory directory")
	}
	logger.Warn().Msg("using in-memory store; data is lost on restart")

	return &stores{
		requests:  mem.Requests(),
		responses: mem.Responses(),
		tx:        mem,
		doctors:   doctors,
		health:    db.StaticHealthHandler(config.DriverMemory),
		close:     func() {},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// newServer builds the echo instance with every route and middleware.
func newServer(cfg *config.Config, st *stores, metrics *telemetry.Collector, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = envelope.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(metrics.Middleware())

	// Auth middleware
	if cfg.ResolvedAuthMode() == config.AuthModeDevelopment {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", st.health)
	e.GET("/metrics", metrics.Handler())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	limiter := middleware.RateLimit(rateLimitCfg)

	// Appointment workflow engine
	breaker := appointment.NewBreaker("appointment-store", cfg.BreakerFailures, cfg.BreakerCooldown, logger)
	apptSvc := appointment.NewService(st.requests, st.responses, st.tx,
		appointment.WithTimeout(cfg.StoreTimeout),
		appointment.WithBreaker(breaker),
		appointment.WithRecorder(metrics),
		appointment.WithLogger(logger),
	)
	apptHandler := appointment.NewHandler(apptSvc, logger)

	// Doctor directory
	dirHandler := directory.NewHandler(directory.NewService(st.doctors, cfg.StoreTimeout), logger)

	// Routes are served both at the root, as the existing clients expect,
	// and under /api/v1.
	for _, prefix := range []string{"", "/api/v1"} {
		apptHandler.RegisterRoutes(e.Group(prefix+"/appointments", limiter))
		dirHandler.RegisterRoutes(e.Group(prefix+"/doctors", limiter))
	}

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	metrics := telemetry.NewCollector()
	st, err := openStores(context.Background(), cfg, metrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.close()

	e := newServer(cfg, st, metrics, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
