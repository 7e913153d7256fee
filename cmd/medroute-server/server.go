package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medroute/medroute/internal/config"
	"github.com/medroute/medroute/internal/domain/booking"
	"github.com/medroute/medroute/internal/domain/identity"
	"github.com/medroute/medroute/internal/domain/triage"
	"github.com/medroute/medroute/internal/platform/auth"
	"github.com/medroute/medroute/internal/platform/db"
	"github.com/medroute/medroute/internal/platform/metrics"
	"github.com/medroute/medroute/internal/platform/middleware"
	"github.com/medroute/medroute/migrations"
)

const version = "0.1.0"

// stores bundles the durable state selected by STORE_DRIVER.
type stores struct {
	driver   string
	bookings booking.Store
	users    identity.UserRepository
	health   echo.HandlerFunc
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store; appointments are lost on restart")
		return &stores{
			driver:   config.DriverMemory,
			bookings: booking.NewMemoryStore(),
			users:    identity.NewMemoryUserRepo(),
			health: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "driver": config.DriverMemory})
			},
			close: func() {},
		}, nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		n, err := db.NewSQLiteMigrator(conn, migrations.SQLite()).Up(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath).Int("applied", n).Msg("sqlite store ready")
		return &stores{
			driver:   config.DriverSQLite,
			bookings: booking.NewSQLiteStore(conn),
			users:    identity.NewUserRepoSQLite(conn),
			health:   db.SQLHealthHandler(conn),
			close:    func() { conn.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, db.WithApplicationName("medroute"))
		if err != nil {
			return nil, err
		}
		n, err := db.NewPGMigrator(pool, migrations.Postgres()).Up(ctx)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info().Int("applied", n).Msg("connected to database")
		return &stores{
			driver:   config.DriverPostgres,
			bookings: booking.NewPGStore(pool),
			users:    identity.NewUserRepoPG(pool),
			health:   db.PoolHealthHandler(pool),
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func loadTriage(cfg *config.Config) (*triage.Service, error) {
	return triage.Load(triage.Options{
		CatalogPath:   cfg.TriageCatalogPath,
		VocabularyCSV: cfg.TriageVocabCSV,
		ModelPath:     cfg.TriageModelPath,
	})
}

// newServer builds the HTTP API on top of already opened stores.
func newServer(cfg *config.Config, logger zerolog.Logger, st *stores, triageSvc *triage.Service) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	jwtCfg := auth.JWTConfig{Issuer: cfg.JWTIssuer, SigningKey: cfg.SigningKey()}
	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtCfg)
	} else {
		authMW = auth.JWTMiddleware(jwtCfg)
	}

	apiV1 := e.Group("/api/v1",
		middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		}),
		middleware.BodyLimit(cfg.BodyLimit),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)
	protected := apiV1.Group("", authMW)

	triage.NewHandler(triageSvc).RegisterRoutes(apiV1)
	booking.NewHandler(booking.NewService(st.bookings)).RegisterRoutes(apiV1, protected)

	identitySvc := identity.NewService(st.users, auth.NewIssuer(jwtCfg, cfg.JWTTTL))
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"driver":  st.driver,
		})
	})
	e.GET("/health/db", st.health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}
