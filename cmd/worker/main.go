package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/config"
	"github.com/duongtruongbinh/life-os/internal/database"
	"github.com/duongtruongbinh/life-os/internal/logger"
	"github.com/duongtruongbinh/life-os/internal/queue"
	"github.com/duongtruongbinh/life-os/internal/services/tracker"
	"github.com/duongtruongbinh/life-os/internal/telemetry"
	"github.com/duongtruongbinh/life-os/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.RollupsEnabled() {
		log.Fatalf("RABBITMQ_URL is required to run the worker")
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
		zap.Duration("dlq_retention", cfg.DLQRetention),
	)

	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, "life-os-worker", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("otel_tracer_init_failed", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = telemetry.Shutdown(shutdownCtx, tp)
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

	jobQueue, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	svc := tracker.NewService(tracker.Repositories{
		Logs:     database.NewDailyLogRepository(db),
		Tasks:    database.NewTaskRepository(db),
		Habits:   database.NewHabitRepository(db),
		Settings: database.NewUserSettingsRepository(db),
		Streaks:  database.NewHabitStreakRepository(db),
	}, tracker.WithLogger(zapLogger))
	processor := workers.NewRollupProcessor(svc, jobQueue, zapLogger)

	var wg sync.WaitGroup

	sweeper := queue.NewDLQSweeper(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_sweeper_stopped", zap.Error(err))
		}
	}()

	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_consuming")

	// One goroutine per prefetch slot so an early job waiting out its
	// NotBefore does not hold up the rest.
	for i := 0; i < cfg.RabbitMQPrefetch; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgs {
				if err := processor.ProcessJob(ctx, msg); err != nil {
					job := msg.GetJob()
					zapLogger.Warn("job_failed",
						zap.String("job_id", job.ID.String()),
						zap.String("job_type", string(job.Type)),
						zap.Error(err),
					)
				}
			}
		}()
	}

	go func() {
		for err := range errs {
			if errors.Is(err, queue.ErrConsumerClosed) {
				zapLogger.Error("queue_consumer_closed", zap.Error(err))
				stop()
				continue
			}
			zapLogger.Warn("queue_error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("worker_shutting_down")
	wg.Wait()
	zapLogger.Info("worker_stopped")
}
