package event

import "sync"

// Observer receives events published during an algorithm run. Update
// must not block the publisher for long; heavy work such as rendering
// belongs in the observer implementation, deferred off the hot path.
type Observer interface {
	Update(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

// Update implements Observer.
func (f ObserverFunc) Update(e Event) {
	f(e)
}

// Observable fans events out to a set of subscribers. The zero value is
// ready to use. Notify is safe to call from concurrent workers; the
// observer list is the only state shared across them.
type Observable struct {
	mu        sync.RWMutex
	observers []Observer
}

// AddObserver subscribes an observer. Adding the same observer twice is
// a no-op.
func (o *Observable) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.observers {
		if existing == obs {
			return
		}
	}
	o.observers = append(o.observers, obs)
}

// RemoveObserver unsubscribes an observer.
func (o *Observable) RemoveObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, existing := range o.observers {
		if existing == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// Notify delivers the event to every subscriber in subscription order.
// The subscriber list is snapshotted under the lock; Update calls happen
// outside it so a slow observer cannot block subscription changes.
func (o *Observable) Notify(e Event) {
	o.mu.RLock()
	snapshot := make([]Observer, len(o.observers))
	copy(snapshot, o.observers)
	o.mu.RUnlock()

	for _, obs := range snapshot {
		obs.Update(e)
	}
}

// ObserverCount returns the number of subscribers.
func (o *Observable) ObserverCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.observers)
}
