package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectAttempts     = 10
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// ConnectRabbitMQ dials RabbitMQ with exponential backoff so the server and
// worker survive the broker starting after them.
func ConnectRabbitMQ(ctx context.Context, amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	return connectWithRetry(ctx, logger, connectAttempts, connectInitialDelay, func() (*RabbitMQQueue, error) {
		return NewRabbitMQQueue(amqpURL, logger)
	})
}

func connectWithRetry[T any](ctx context.Context, logger *zap.Logger, attempts int, initial time.Duration, dial func() (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var zero T
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		conn, err := dial()
		if err == nil {
			return conn, nil
		}
		lastErr = err

		delay := initial << attempt
		if delay > connectMaxDelay || delay <= 0 {
			delay = connectMaxDelay
		}
		logger.Warn("rabbitmq_connect_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, fmt.Errorf("failed to connect after %d attempts: %w", attempts, lastErr)
}
