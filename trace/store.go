// Package trace provides the append-only per-run event journal. A run's
// journal is what the graph recorder and the CLI replay to reconstruct
// how a search unfolded.
package trace

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
)

// ErrRunNotFound is returned when loading a run with no recorded entries.
var ErrRunNotFound = errors.New("run not found")

// Entry is one journaled event.
type Entry struct {
	// RunID identifies the run the entry belongs to.
	RunID string `json:"run_id"`

	// Seq is the ordering number within the run's journal, starting at 1.
	Seq uint64 `json:"seq"`

	// Time is when the entry was appended.
	Time time.Time `json:"time"`

	// Event is the published event mapping.
	Event event.Event `json:"event"`
}

// Store persists run journals. Implementations may be in-memory or
// durable (badger). Append must be safe for concurrent use: parallel
// candidate workers publish events from multiple goroutines.
type Store interface {
	// Append journals an event for a run, assigning the next sequence
	// number.
	Append(ctx context.Context, runID string, e event.Event) error

	// Load returns a run's entries in sequence order.
	Load(ctx context.Context, runID string) ([]Entry, error)

	// Runs lists all run IDs present in the store.
	Runs(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}
