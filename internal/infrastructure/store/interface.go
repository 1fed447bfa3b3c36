package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// Publisher forwards stored events to downstream consumers (Kafka, in-process projector).
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, key string, event any) error

func (f PublisherFunc) Publish(ctx context.Context, key string, event any) error {
	return f(ctx, key, event)
}

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	Set(collection, id string, data any)
	Get(collection, id string) (any, bool)
	GetAll(collection string) []any
	Delete(collection, id string)
	// Update modifies a read model in place; it reports false when the id is absent.
	Update(collection, id string, updateFn func(current any) any) bool
}
