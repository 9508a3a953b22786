package event

import (
	"context"

	"github.com/viant/afs"
	"github.com/viant/changegate/internal/clock"
	"github.com/viant/changegate/service/messaging"
	"github.com/viant/changegate/service/messaging/fs"
	"github.com/viant/changegate/service/messaging/memory"
)

// Service publishes lifecycle events to the configured queue.
type Service struct {
	queue messaging.Queue[Event]
}

// New creates an event service over the supplied queue.
func New(queue messaging.Queue[Event]) *Service {
	return &Service{queue: queue}
}

// NewMemory creates an event service backed by an in-process queue.
func NewMemory() *Service {
	return New(memory.NewQueue[Event](memory.DefaultConfig()))
}

// NewFS creates an event service backed by a filesystem queue rooted at
// baseURL, so events survive restarts.
func NewFS(baseURL string) (*Service, error) {
	queue, err := fs.NewQueue[Event](afs.New(), fs.DefaultConfig(baseURL))
	if err != nil {
		return nil, err
	}
	return New(queue), nil
}

// Publish stamps and enqueues the event.
func (s *Service) Publish(ctx context.Context, event *Event) error {
	if event.At.IsZero() {
		event.At = clock.Now()
	}
	return s.queue.Publish(ctx, event)
}

// Consume returns the next event, acknowledging it immediately. A nil event
// with nil error means the queue is empty.
func (s *Service) Consume(ctx context.Context) (*Event, error) {
	msg, err := s.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}
