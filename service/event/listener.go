package event

import (
	"context"
	"log"
	"time"
)

// Listener runs a handler for every published event on a background
// goroutine until stopped.
type Listener struct {
	service *Service
	handler func(*Event)
	cancel  context.CancelFunc
}

// NewListener creates a stopped listener.
func NewListener(service *Service, handler func(*Event)) *Listener {
	return &Listener{service: service, handler: handler}
}

// Start begins consuming events.
func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		for {
			event, err := l.service.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("failed to consume event: %v", err)
				continue
			}
			if event == nil {
				// fs-backed queues return empty rather than blocking
				time.Sleep(100 * time.Millisecond)
				continue
			}
			l.handler(event)
		}
	}()
}

// Stop ends consumption.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}
