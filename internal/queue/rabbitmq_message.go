package queue

import (
	"errors"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrAlreadySettled is returned when a message is acked or nacked twice.
var ErrAlreadySettled = errors.New("message already acknowledged")

// acknowledger is the part of an amqp.Delivery a Message settles through.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Message is a decoded rollup job plus the delivery it arrived on. It can be
// settled once; later calls return ErrAlreadySettled.
type Message struct {
	Job      *Job
	delivery acknowledger
	settled  atomic.Bool
}

func newMessage(job *Job, d amqp.Delivery) *Message {
	return &Message{Job: job, delivery: d}
}

func (m *Message) Ack() error {
	if !m.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return m.delivery.Ack(false)
}

// Nack rejects the message. Without requeue it is dead-lettered.
func (m *Message) Nack(requeue bool) error {
	if !m.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return m.delivery.Nack(false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}

var _ MessageInterface = (*Message)(nil)
