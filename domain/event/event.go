// Package event provides the observer mechanism used by all search
// algorithms to broadcast lifecycle events.
package event

// Well-known keys present on every event.
const (
	// KeyAlgorithmType discriminates which algorithm published the event.
	KeyAlgorithmType = "algorithm_type"

	// KeyEvent is the lifecycle tag, e.g. "algorithm_start".
	KeyEvent = "event"
)

// Lifecycle tags emitted by every algorithm.
const (
	AlgorithmStart    = "algorithm_start"
	AlgorithmComplete = "algorithm_complete"
	PlanGenerated     = "plan_generation_complete"
	BestPlanSelected  = "best_plan_selected"
)

// Event is a flat mapping describing one moment in an algorithm run.
// Every event carries at least KeyAlgorithmType and KeyEvent. Events are
// immutable once published: publishers build a fresh mapping per
// notification and observers must not retain or mutate them beyond the
// duration of their Update call.
type Event map[string]any

// New creates an event with the two mandatory fields set.
func New(algorithmType, lifecycle string) Event {
	return Event{
		KeyAlgorithmType: algorithmType,
		KeyEvent:         lifecycle,
	}
}

// With sets a field and returns the event for chaining during construction.
func (e Event) With(key string, value any) Event {
	e[key] = value
	return e
}

// Clone returns a shallow copy. Forwarders that annotate events, such as
// a meta-controller tagging delegated child events, must clone first so
// the published original stays untouched.
func (e Event) Clone() Event {
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// AlgorithmType returns the publishing algorithm's type name.
func (e Event) AlgorithmType() string {
	s, _ := e[KeyAlgorithmType].(string)
	return s
}

// Lifecycle returns the lifecycle tag.
func (e Event) Lifecycle() string {
	s, _ := e[KeyEvent].(string)
	return s
}
