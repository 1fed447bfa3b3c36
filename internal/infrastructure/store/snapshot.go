package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotThreshold is how many cart or order events accumulate between snapshots.
// Loading an aggregate then replays at most this many events on top of its snapshot.
const SnapshotThreshold = 10

// Snapshot is the JSON state of an aggregate after the event numbered Version.
// It is keyed by aggregate id, so each save replaces the previous one.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Restore unmarshals the saved state into v
func (s *Snapshot) Restore(v any) error {
	if err := json.Unmarshal(s.State, v); err != nil {
		return fmt.Errorf("restore %s snapshot of %s at version %d: %w", s.AggregateType, s.AggregateID, s.Version, err)
	}
	return nil
}
