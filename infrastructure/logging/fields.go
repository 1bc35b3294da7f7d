package logging

import (
	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for search-run logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Algorithm adds the algorithm type name.
func Algorithm(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("algorithm", name)
	}
}

// EventType adds the lifecycle tag of a published event.
func EventType(tag string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("event", tag)
	}
}

// Iteration adds a refinement iteration number.
func Iteration(i int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iteration", i)
	}
}

// Depth adds a tree depth.
func Depth(d int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("depth", d)
	}
}

// Score adds a verification or step-reward score.
func Score(s float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("score", s)
	}
}

// Provider adds the generation provider name.
func Provider(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", name)
	}
}

// Step adds the step name within an algorithm.
func Step(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("step", name)
	}
}

// Str adds an arbitrary string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Err adds an error field.
func Err(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Err(err)
	}
}
