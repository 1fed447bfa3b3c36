package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.EventType, err)
	}
	return nil
}

// EventStore keeps events in process memory. Carts and orders live as long as the process.
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	snapshots map[string]Snapshot
	sequence  []Event // global append order
	publisher Publisher
}

func NewEventStore(publisher Publisher) *EventStore {
	return &EventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]Snapshot),
		publisher: publisher,
	}
}

// Append stores an event and hands it to the publisher
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(es.events[aggregateID]) + 1,
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.sequence = append(es.sequence, event)
	es.mu.Unlock()

	if es.publisher != nil {
		if err := es.publisher.Publish(ctx, aggregateID, event); err != nil {
			return nil, fmt.Errorf("publish %s: %w", eventType, err)
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(_ context.Context, aggregateID string) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.events[aggregateID]...), nil
}

// GetEventsFromVersion returns the events of an aggregate with a version greater than version
func (es *EventStore) GetEventsFromVersion(_ context.Context, aggregateID string, version int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	all := es.events[aggregateID]
	idx := sort.Search(len(all), func(i int) bool { return all[i].Version > version })
	return append([]Event(nil), all[idx:]...), nil
}

// GetAllEvents returns every event in append order
func (es *EventStore) GetAllEvents(_ context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.sequence...), nil
}

// GetSnapshot returns the latest snapshot of an aggregate, or nil
func (es *EventStore) GetSnapshot(_ context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	snapshot, ok := es.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

// SaveSnapshot replaces the snapshot of an aggregate
func (es *EventStore) SaveSnapshot(_ context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}
