package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/database"
	"github.com/duongtruongbinh/life-os/internal/handlers"
	"github.com/duongtruongbinh/life-os/internal/logger"
	"github.com/duongtruongbinh/life-os/internal/middleware"
	"github.com/duongtruongbinh/life-os/internal/queue"
	"github.com/duongtruongbinh/life-os/internal/services/oidc"
	"github.com/duongtruongbinh/life-os/internal/services/tracker"
	"github.com/duongtruongbinh/life-os/internal/telemetry"
)

const serviceName = "life-os-server"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireIssuer(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("oidc_issuer", cfg.OIDCIssuer),
		zap.Bool("rollups_enabled", cfg.RollupsEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("otel_tracer_init_failed", zap.Error(err))
		} else {
			tracing = true
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("otel_tracer_shutdown_failed", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	var jobQueue *queue.RabbitMQQueue
	if cfg.RollupsEnabled() {
		jobQueue, err = queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	}

	repos := tracker.Repositories{
		Logs:     database.NewDailyLogRepository(db),
		Tasks:    database.NewTaskRepository(db),
		Habits:   database.NewHabitRepository(db),
		Settings: database.NewUserSettingsRepository(db),
		Streaks:  database.NewHabitStreakRepository(db),
	}
	svcOpts := []tracker.Option{tracker.WithLogger(zapLogger)}
	checks := map[string]handlers.CheckFunc{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if jobQueue != nil {
		svcOpts = append(svcOpts, tracker.WithJobQueue(jobQueue, cfg.StreakRollupDelay))
		checks["rabbitmq"] = jobQueue.HealthCheck
	}

	rateLimit, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	router := newRouter(routerDeps{
		tracker:    handlers.NewTrackerHandler(tracker.NewService(repos, svcOpts...), zapLogger),
		auth:       handlers.NewAuthHandler(),
		health:     handlers.NewHealthChecker(checks),
		verifier:   oidc.NewVerifier(oidc.NewJWKSManager(nil), cfg.OIDCIssuer, cfg.OIDCJWKSURL, cfg.OIDCAudience),
		users:      database.NewUserRepository(db),
		rateLimit:  rateLimit,
		origins:    middleware.ParseOrigins(cfg.FrontendURL),
		enableHSTS: cfg.EnableHSTS,
		tracing:    tracing,
		logger:     zapLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("server_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("server_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("server_exited")
}
