package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counter sums the "n" field of every event it sees
type counter struct {
	ID      string `json:"id"`
	Total   int    `json:"total"`
	Applied int    `json:"applied"`
	version int
}

func newCounter(id string) func() *counter {
	return func() *counter { return &counter{ID: id} }
}

func (c *counter) GetID() string    { return c.ID }
func (c *counter) GetVersion() int  { return c.version }
func (c *counter) SetVersion(v int) { c.version = v }

func (c *counter) ApplyEvent(event store.Event) error {
	var e struct {
		N int `json:"n"`
	}
	if err := event.Decode(&e); err != nil {
		return err
	}
	c.Total += e.N
	c.Applied++
	c.version = event.Version
	return nil
}

func appendN(t *testing.T, es store.EventStoreInterface, id string, count int) {
	t.Helper()
	for i := 1; i <= count; i++ {
		_, err := es.Append(context.Background(), id, "Counter", "Incremented", map[string]int{"n": i})
		require.NoError(t, err)
	}
}

func TestLoadAggregate_NoHistory(t *testing.T) {
	agg, found, err := LoadAggregate(context.Background(), store.NewEventStore(nil), "c-1", newCounter("c-1"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, agg.GetVersion())
}

func TestLoadAggregate_ReplaysEvents(t *testing.T) {
	es := store.NewEventStore(nil)
	appendN(t, es, "c-1", 3)

	agg, found, err := LoadAggregate(context.Background(), es, "c-1", newCounter("c-1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 6, agg.Total)
	assert.Equal(t, 3, agg.GetVersion())
}

func TestLoadAggregate_ResumesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	es := store.NewEventStore(nil)
	appendN(t, es, "c-1", store.SnapshotThreshold)

	agg, _, err := LoadAggregate(ctx, es, "c-1", newCounter("c-1"))
	require.NoError(t, err)
	require.NoError(t, MaybeCreateSnapshot(ctx, es, agg, "Counter"))

	snapshot, err := es.GetSnapshot(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, store.SnapshotThreshold, snapshot.Version)

	appendN(t, es, "c-1", 2)

	reloaded, found, err := LoadAggregate(ctx, es, "c-1", newCounter("c-1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 55+3, reloaded.Total)
	// the snapshot carries ten applications, only the two newer events are replayed on top
	assert.Equal(t, store.SnapshotThreshold+2, reloaded.Applied)
	assert.Equal(t, store.SnapshotThreshold+2, reloaded.GetVersion())
}

func TestMaybeCreateSnapshot_SkipsOffThreshold(t *testing.T) {
	ctx := context.Background()
	es := store.NewEventStore(nil)
	agg := &counter{ID: "c-1", version: store.SnapshotThreshold - 1}

	require.NoError(t, MaybeCreateSnapshot(ctx, es, agg, "Counter"))

	snapshot, err := es.GetSnapshot(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestLoadAggregate_SnapshotError(t *testing.T) {
	es := mocks.NewMockEventStore()
	es.SnapshotErr = errors.New("db down")

	_, _, err := LoadAggregate(context.Background(), es, "c-1", newCounter("c-1"))
	assert.ErrorContains(t, err, "db down")
}
