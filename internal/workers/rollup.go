// Package workers holds the background job processors run by cmd/worker.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/queue"
)

const (
	// DefaultRetryBackoff is the first retry delay; each later retry doubles it.
	DefaultRetryBackoff = 30 * time.Second
	// MaxEarlyWait is how long a job delivered before its NotBefore is held in
	// memory. Anything further out is put back on the queue.
	MaxEarlyWait = 2 * time.Minute
)

// StreakRoller recomputes the stored streaks for one user.
type StreakRoller interface {
	RollupStreaks(ctx context.Context, userID uuid.UUID, asOf string) ([]models.HabitStreak, error)
}

// RollupProcessor handles streak_rollup jobs.
type RollupProcessor struct {
	roller   StreakRoller
	jobQueue queue.JobQueue
	logger   *zap.Logger
	backoff  time.Duration
	now      func() time.Time
}

// NewRollupProcessor creates a processor. jobQueue is used to schedule retries;
// without it a failed job goes straight to the dead-letter queue.
func NewRollupProcessor(roller StreakRoller, jobQueue queue.JobQueue, logger *zap.Logger) *RollupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollupProcessor{
		roller:   roller,
		jobQueue: jobQueue,
		logger:   logger,
		backoff:  DefaultRetryBackoff,
		now:      time.Now,
	}
}

// ProcessJob runs one delivered job and settles the message. The returned
// error is informational; the message has already been acked or nacked.
func (p *RollupProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		p.nack(msg, nil, "missing job")
		return errors.New("message carries no job")
	}

	if job.IsExpired() {
		p.nack(msg, job, "expired")
		return fmt.Errorf("job %s expired", job.ID)
	}

	if job.NotBefore != nil {
		if wait := job.NotBefore.Sub(p.now()); wait > 0 {
			if wait > MaxEarlyWait {
				return p.requeue(ctx, msg, job)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				if err := msg.Nack(true); err != nil {
					p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	switch job.Type {
	case queue.JobTypeStreakRollup:
		start := p.now()
		streaks, err := p.roller.RollupStreaks(ctx, job.UserID, job.AsOf)
		if err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack job: %w", err)
		}
		p.logger.Info("streak_rollup_completed",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.String("as_of", job.AsOf),
			zap.Int("habits", len(streaks)),
			zap.Duration("duration", p.now().Sub(start)),
		)
		return nil

	default:
		p.nack(msg, job, "unknown job type")
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError schedules a delayed retry while the job has budget left and
// dead-letters it otherwise.
func (p *RollupProcessor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, jobErr error) error {
	if !job.CanRetry() || p.jobQueue == nil {
		p.nack(msg, job, "retries exhausted")
		return fmt.Errorf("streak rollup failed after %d retries: %w", job.RetryCount, jobErr)
	}

	delay := p.backoff << job.RetryCount
	retry := job.Retry(p.now().Add(delay))
	if err := p.jobQueue.Enqueue(ctx, retry); err != nil {
		p.nack(msg, job, "retry enqueue failed")
		return fmt.Errorf("failed to enqueue retry: %w (original error: %v)", err, jobErr)
	}
	if err := msg.Ack(); err != nil {
		p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(err))
	}

	p.logger.Warn("streak_rollup_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", retry.RetryCount),
		zap.Duration("delay", delay),
		zap.Error(jobErr),
	)
	return jobErr
}

// requeue puts a too-early job back on the queue unchanged.
func (p *RollupProcessor) requeue(ctx context.Context, msg queue.MessageInterface, job *queue.Job) error {
	if p.jobQueue == nil {
		if err := msg.Nack(true); err != nil {
			return fmt.Errorf("failed to requeue early job: %w", err)
		}
		return nil
	}
	if err := p.jobQueue.Enqueue(ctx, job); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue early job: %w", err)
	}
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack early job: %w", err)
	}
	return nil
}

func (p *RollupProcessor) nack(msg queue.MessageInterface, job *queue.Job, reason string) {
	fields := []zap.Field{zap.String("reason", reason)}
	if job != nil {
		fields = append(fields,
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
		)
	}
	p.logger.Warn("job_dead_lettered", fields...)
	if err := msg.Nack(false); err != nil {
		p.logger.Warn("job_nack_failed", append(fields, zap.Error(err))...)
	}
}
