// Package emit formats quotes as canonical output lines.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"quote-replay-go/quote"
)

// TimeLayout renders timestamps in a fixed, lexically sortable form.
const TimeLayout = "2006-01-02 15:04:05.000000"

// FormatQuote renders q as one output line without the trailing newline:
// packet time, accept time, issue code, then ten quantity@price fields with
// bids worst-to-best followed by asks best-to-worst. Field order and widths
// are an output contract that downstream consumers parse.
func FormatQuote(q quote.Quote) string {
	var b strings.Builder
	b.Grow(192)
	fmt.Fprintf(&b, "%s %s %s",
		q.PacketTime.UTC().Format(TimeLayout),
		q.AcceptTime.UTC().Format(TimeLayout),
		q.IssueCode)
	for i := quote.Depth - 1; i >= 0; i-- {
		fmt.Fprintf(&b, " %6d@%-6d", q.Bids[i].Qty, q.Bids[i].Price)
	}
	for i := 0; i < quote.Depth; i++ {
		fmt.Fprintf(&b, " %6d@%-6d", q.Asks[i].Qty, q.Asks[i].Price)
	}
	return b.String()
}

// Emitter writes quote lines to a buffered sink.
type Emitter struct {
	w *bufio.Writer
}

// NewEmitter wraps w in a buffered Emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

// Emit writes one quote line.
func (e *Emitter) Emit(q quote.Quote) error {
	if _, err := e.w.WriteString(FormatQuote(q)); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

// Flush pushes buffered output to the underlying writer.
func (e *Emitter) Flush() error { return e.w.Flush() }
