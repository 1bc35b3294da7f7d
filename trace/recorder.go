package trace

import (
	"context"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/infrastructure/logging"
)

// Recorder is an observer that journals every event it receives into a
// Store. Append failures are logged, never propagated: a broken journal
// must not fail the search itself.
type Recorder struct {
	store Store
	runID string
}

// NewRecorder creates a recorder journaling into store under runID.
func NewRecorder(store Store, runID string) *Recorder {
	return &Recorder{store: store, runID: runID}
}

// Update implements event.Observer.
func (r *Recorder) Update(e event.Event) {
	if err := r.store.Append(context.Background(), r.runID, e); err != nil {
		logging.Warn().
			Add(logging.RunID(r.runID)).
			Add(logging.EventType(e.Lifecycle())).
			Add(logging.Err(err)).
			Msg("trace append failed")
	}
}

// RunID returns the run this recorder journals under.
func (r *Recorder) RunID() string {
	return r.runID
}
