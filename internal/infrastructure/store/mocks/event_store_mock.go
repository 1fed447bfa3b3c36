package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore records appends and serves events from memory
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	order     []store.Event
	snapshots map[string]store.Snapshot

	AppendCalls       []AppendCall
	AppendErr         error
	SnapshotErr       error
	SaveSnapshotCalls int
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:    make(map[string][]store.Event),
		snapshots: make(map[string]store.Snapshot),
	}
}

func (m *MockEventStore) Append(_ context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	event, err := m.add(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (m *MockEventStore) GetEvents(_ context.Context, aggregateID string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.Event(nil), m.events[aggregateID]...), nil
}

func (m *MockEventStore) GetEventsFromVersion(_ context.Context, aggregateID string, version int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > version {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) GetAllEvents(_ context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]store.Event(nil), m.order...), nil
}

func (m *MockEventStore) GetSnapshot(_ context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	s, ok := m.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockEventStore) SaveSnapshot(_ context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveSnapshotCalls++
	if m.SnapshotErr != nil {
		return m.SnapshotErr
	}
	m.snapshots[snapshot.AggregateID] = *snapshot
	return nil
}

// AddEvent seeds an event without recording an Append call
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.add(aggregateID, aggregateType, eventType, data)
	return err
}

// Reset clears all events, snapshots and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.snapshots = make(map[string]store.Snapshot)
	m.order = nil
	m.AppendCalls = nil
	m.AppendErr = nil
	m.SnapshotErr = nil
	m.SaveSnapshotCalls = 0
}

func (m *MockEventStore) add(aggregateID, aggregateType, eventType string, data any) (store.Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return store.Event{}, err
	}

	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(m.events[aggregateID]) + 1,
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	m.order = append(m.order, event)
	return event, nil
}
