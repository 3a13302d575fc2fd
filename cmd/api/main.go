// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/accounts-api/internal/admin"
	"github.com/carterperez-dev/templates/accounts-api/internal/auth"
	"github.com/carterperez-dev/templates/accounts-api/internal/config"
	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/health"
	"github.com/carterperez-dev/templates/accounts-api/internal/mail"
	"github.com/carterperez-dev/templates/accounts-api/internal/media"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
	"github.com/carterperez-dev/templates/accounts-api/internal/server"
	"github.com/carterperez-dev/templates/accounts-api/internal/user"
	"github.com/carterperez-dev/templates/accounts-api/internal/view"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen,gocyclo // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log, cfg.IsDevelopment())
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis != nil {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, rate limiting is per process")
	}

	hasher, err := core.NewPasswordHasher(cfg.Security)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized",
		"algorithm", "HS256",
		"expires_in", cfg.JWT.ExpiresIn.String(),
	)

	mailer, err := mail.NewSender(cfg.Email, logger)
	if err != nil {
		return err
	}

	store, err := media.NewStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	photos := media.NewPhotos(store, cfg.Users.PhotoSize, cfg.Users.MaxPhotoBytes)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo, hasher, photos, cfg.Users.DefaultPassword)
	userHandler := user.NewHandler(userSvc, user.HandlerConfig{
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		MaxPhotoBytes: cfg.Users.MaxPhotoBytes,
	})

	authSvc := auth.NewService(userSvc, tokens, mailer)
	authHandler := auth.NewHandler(authSvc, auth.HandlerConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Cookie: auth.CookieConfig{
			MaxAge: cfg.JWT.CookieMaxAge(),
			Secure: cfg.IsProduction(),
		},
		PublicURL: cfg.App.PublicURL,
	})

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}
	viewHandler := view.NewHandler(renderer)

	deps := []health.Dependency{{Name: "database", Checker: db}}
	adminCfg := admin.HandlerConfig{
		DBStats: db.Stats,
		DBPing:  db.Ping,
		Users:   userSvc,
	}
	if redis != nil {
		deps = append(deps, health.Dependency{Name: "redis", Checker: redis})
		adminCfg.RedisStats = redis.PoolStats
		adminCfg.RedisPing = redis.Ping
	}
	healthHandler := health.NewHandler(deps...)
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Views:         renderer,
		Logger:        logger,
		Debug:         !cfg.IsProduction(),
	})

	router := srv.Router()

	redisClient := redisClientOf(redis)

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if disk, ok := store.(*media.DiskStore); ok {
		srv.ServeFiles(view.PhotoBase, disk.Dir())
	}

	viewHandler.RegisterRoutes(router, middleware.OptionalAuth(authSvc))

	authenticator := middleware.Authenticate(authSvc)
	adminOnly := middleware.RequireAdmin
	authLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, authLimiter)
		userHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	waitForMail(shutdownCtx, authSvc, logger)

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func redisClientOf(r *core.Redis) *goredis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

// waitForMail lets in-flight welcome emails finish before the process
// exits, bounded by the shutdown deadline.
func waitForMail(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("shutdown deadline reached with emails still sending")
	}
}

func setupLogger(cfg config.LogConfig, development bool) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if development {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
