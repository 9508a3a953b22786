// Package memory provides a channel-backed in-process queue, the default
// event transport when no durable queue is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/changegate/service/messaging"
)

// Config for the memory queue.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	Buffer     int
}

// DefaultConfig returns a standard configuration for the memory queue.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		Buffer:     100,
	}
}

// Message implements messaging.Message for the memory queue.
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempts  int
	mu        sync.Mutex
	processed bool
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack marks the message as processed.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	return nil
}

// Nack records a processing failure; the message is redelivered after the
// retry delay until the retry limit is reached, then parked on the dead
// letter list.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.id)
	}
	m.processed = true
	m.attempts++

	if m.attempts <= m.queue.config.MaxRetries {
		retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, attempts: m.attempts}
		go func() {
			time.Sleep(m.queue.config.RetryDelay)
			m.queue.messages <- retry
		}()
		return nil
	}
	m.queue.dlqMu.Lock()
	m.queue.dlq = append(m.queue.dlq, m)
	m.queue.dlqMu.Unlock()
	return nil
}

// Queue is an in-memory messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	dlq      []*Message[T]
	dlqMu    sync.Mutex
	config   Config
}

// NewQueue creates a memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig().Buffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.Buffer),
		config:   config,
	}
}

// Publish adds a new item to the queue.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until a message is available or the context ends.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of queued messages.
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of dead-lettered messages.
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
