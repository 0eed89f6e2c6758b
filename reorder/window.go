// Package reorder buffers decoded quotes long enough to absorb bounded
// out-of-order arrival and releases them ascending by accept time.
package reorder

import (
	"fmt"
	"time"

	"quote-replay-go/quote"
)

// DefaultMaxDelay is the maximum accept-time skew assumed between any two
// out-of-order quotes. Once an incoming quote is more than this far ahead of
// a buffered one, no earlier quote can still arrive and the buffered one is
// safe to emit.
const DefaultMaxDelay = 3 * time.Second

// DefaultCapacity pre-sizes the buffer. It is a hint, not a bound: the
// window grows without limit if reordering exceeds expectations.
const DefaultCapacity = 2048

// Strategy selects the window's internal layout. Both layouts emit the same
// multiset of quotes and, for pairwise-distinct accept times, the same order.
type Strategy string

const (
	// StrategySorted keeps an insertion-sorted slice; quotes with equal
	// accept times drain in arrival order.
	StrategySorted Strategy = "sorted"
	// StrategyHeap keeps a min-heap; the drain order of quotes with equal
	// accept times is arbitrary.
	StrategyHeap Strategy = "heap"
)

// Window is a bounded-delay reorder buffer. It is single-owner and not safe
// for concurrent use.
type Window interface {
	// Insert buffers q. Callers drain first, then insert, so that q cannot
	// release quotes ahead of itself.
	Insert(q quote.Quote)
	// DrainReady removes and returns, ascending by accept time, every
	// buffered quote whose accept time is more than the max delay behind
	// ref. The comparison is strict: a quote exactly max-delay behind ref
	// stays buffered.
	DrainReady(ref time.Time) []quote.Quote
	// DrainAll removes and returns all buffered quotes ascending by accept
	// time. Called once the input is exhausted.
	DrainAll() []quote.Quote
	// Len reports current occupancy.
	Len() int
}

// New builds a Window. Non-positive maxDelay or capacity fall back to the
// defaults.
func New(s Strategy, maxDelay time.Duration, capacity int) (Window, error) {
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	switch s {
	case StrategySorted:
		return newSortedWindow(maxDelay, capacity), nil
	case StrategyHeap:
		return newHeapWindow(maxDelay, capacity), nil
	default:
		return nil, fmt.Errorf("unknown window strategy %q", s)
	}
}
