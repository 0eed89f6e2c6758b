package reorder

import (
	"container/heap"
	"time"

	"quote-replay-go/quote"
)

// heapWindow keeps the buffer as a min-heap on accept time. container/heap
// is not stable, so the drain order of equal accept times is arbitrary.
type heapWindow struct {
	maxDelay time.Duration
	h        quoteHeap
}

func newHeapWindow(maxDelay time.Duration, capacity int) *heapWindow {
	return &heapWindow{maxDelay: maxDelay, h: make(quoteHeap, 0, capacity)}
}

func (w *heapWindow) Insert(q quote.Quote) {
	heap.Push(&w.h, q)
}

func (w *heapWindow) DrainReady(ref time.Time) []quote.Quote {
	var out []quote.Quote
	for len(w.h) > 0 && w.h[0].AcceptTime.Add(w.maxDelay).Before(ref) {
		out = append(out, heap.Pop(&w.h).(quote.Quote))
	}
	return out
}

func (w *heapWindow) DrainAll() []quote.Quote {
	out := make([]quote.Quote, 0, len(w.h))
	for len(w.h) > 0 {
		out = append(out, heap.Pop(&w.h).(quote.Quote))
	}
	return out
}

func (w *heapWindow) Len() int { return len(w.h) }

type quoteHeap []quote.Quote

func (h quoteHeap) Len() int           { return len(h) }
func (h quoteHeap) Less(i, j int) bool { return h[i].AcceptTime.Before(h[j].AcceptTime) }
func (h quoteHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *quoteHeap) Push(x any) { *h = append(*h, x.(quote.Quote)) }

func (h *quoteHeap) Pop() any {
	old := *h
	n := len(old)
	q := old[n-1]
	*h = old[:n-1]
	return q
}
