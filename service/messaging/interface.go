// Package messaging defines a minimal queue abstraction used to hand
// lifecycle events to out-of-process listeners such as mail notifiers.
package messaging

import (
	"context"
)

// Queue is an ordered message channel for one payload type.
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// Message is one delivered payload awaiting acknowledgement.
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}
