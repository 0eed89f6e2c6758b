package quote

import (
	"errors"
	"fmt"
)

// ErrNotQuote reports a frame that does not belong to this feed: not
// Ethernet/IPv4/UDP, or a UDP payload without the B6034 marker. Callers
// skip such frames silently; this is filtering, not failure.
var ErrNotQuote = errors.New("frame is not a B6034 quote")

// ErrorKind classifies why a marked payload failed to decode.
type ErrorKind uint8

const (
	// KindText means the field bytes are not valid encoded text.
	KindText ErrorKind = iota
	// KindParse means the field text is not a bare non-negative decimal.
	KindParse
	// KindTime means the time components do not form a representable time.
	KindTime
)

func (k ErrorKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindParse:
		return "parse"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// FieldError describes a decode failure on a marked payload, pinned to the
// field and payload offset that caused it.
type FieldError struct {
	Field  string
	Offset int
	Kind   ErrorKind
	cause  error
}

func (e *FieldError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s error in field %q at offset %d: %v", e.Kind, e.Field, e.Offset, e.cause)
	}
	return fmt.Sprintf("%s error in field %q at offset %d", e.Kind, e.Field, e.Offset)
}

func (e *FieldError) Unwrap() error { return e.cause }
