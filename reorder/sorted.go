package reorder

import (
	"sort"
	"time"

	"quote-replay-go/quote"
)

// sortedWindow keeps the buffer as a slice always sorted ascending by accept
// time. Inserts go after any equal keys, so ties drain in arrival order.
type sortedWindow struct {
	maxDelay time.Duration
	buf      []quote.Quote
}

func newSortedWindow(maxDelay time.Duration, capacity int) *sortedWindow {
	return &sortedWindow{maxDelay: maxDelay, buf: make([]quote.Quote, 0, capacity)}
}

func (w *sortedWindow) Insert(q quote.Quote) {
	i := sort.Search(len(w.buf), func(i int) bool {
		return w.buf[i].AcceptTime.After(q.AcceptTime)
	})
	w.buf = append(w.buf, quote.Quote{})
	copy(w.buf[i+1:], w.buf[i:])
	w.buf[i] = q
}

func (w *sortedWindow) DrainReady(ref time.Time) []quote.Quote {
	n := sort.Search(len(w.buf), func(i int) bool {
		return !w.buf[i].AcceptTime.Add(w.maxDelay).Before(ref)
	})
	if n == 0 {
		return nil
	}
	out := make([]quote.Quote, n)
	copy(out, w.buf[:n])
	w.buf = w.buf[:copy(w.buf, w.buf[n:])]
	return out
}

func (w *sortedWindow) DrainAll() []quote.Quote {
	out := w.buf
	w.buf = nil
	return out
}

func (w *sortedWindow) Len() int { return len(w.buf) }
