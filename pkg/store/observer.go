package store

import "time"

// Transition describes one applied state change.
type Transition struct {
	Op    Op
	Phase Phase
	// Duration is the time since the operation started. Zero for pending.
	Duration time.Duration
	// Users is the collection size after the transition.
	Users int
}

// Observer is notified of every applied transition.
// Implementations must be safe for concurrent use and must not call back into the Store.
type Observer interface {
	OnTransition(t Transition)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

// OnTransition does nothing.
func (NoopObserver) OnTransition(Transition) {}
