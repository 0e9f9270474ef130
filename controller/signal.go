package controller

import (
	"context"
	"sync"
)

// signal is a single slot mailbox. Signal overwrites any value not yet
// received, so a waiter always gets the latest one.
type signal[T any] struct {
	mu sync.Mutex // serializes writers so drain+send is atomic
	ch chan T
}

func newSignal[T any]() *signal[T] {
	return &signal[T]{ch: make(chan T, 1)}
}

// Signal stores v, replacing any pending value, and wakes the waiter.
func (s *signal[T]) Signal(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
}

// Reset discards the pending value, if any.
func (s *signal[T]) Reset() {
	select {
	case <-s.ch:
	default:
	}
}

// Signaled reports whether a value is pending.
func (s *signal[T]) Signaled() bool {
	return len(s.ch) > 0
}

// Wait blocks until a value is pending and takes it.
func (s *signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
