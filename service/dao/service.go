package dao

import (
	"context"
)

// Service is the persistence contract shared by every entity store in the
// engine. Concrete implementations exist for memory (tests, embedding) and
// for afs-backed JSON documents; the persistence technology itself is out of
// scope for the engine, which only relies on this interface.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
