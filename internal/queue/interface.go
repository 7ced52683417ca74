package queue

import (
	"context"
	"errors"
	"time"
)

// ErrConsumerClosed is sent on the Consume error channel when the broker stops
// delivering. Other errors on that channel concern single messages.
var ErrConsumerClosed = errors.New("delivery channel closed")

// MessageInterface is a delivered rollup job awaiting settlement. Processors
// depend on it rather than *Message so they can be tested without a broker.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue carries streak rollup jobs from the API and CLI tooling to the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams deliveries with at most prefetchCount unsettled at once.
	// Every message must be acked or nacked. Both channels close when ctx is
	// cancelled or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than retention and reports
// how many were dropped.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
