// Package replay drives captured frames through decode and reorder to the
// output sink.
package replay

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"quote-replay-go/capture"
	"quote-replay-go/emit"
	"quote-replay-go/metrics"
	"quote-replay-go/quote"
	"quote-replay-go/reorder"
)

// Runner wires a capture source through the decoder and reorder window to
// the emitter. Single-threaded: the window is owned by Run for its whole
// lifetime, so no locking is needed. Log and Metrics are optional.
type Runner struct {
	Source  capture.Source
	Decoder *quote.Decoder
	Window  reorder.Window
	Emitter *emit.Emitter
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Run consumes the source until exhaustion, emitting quotes in ascending
// accept-time order, then drains the window and flushes the sink. A read
// failure mid-capture ends the run the same way exhaustion does. Decode
// failures drop the frame from the output but stay visible in logs and
// metrics.
func (r *Runner) Run() error {
	if r.Source == nil || r.Decoder == nil || r.Window == nil || r.Emitter == nil {
		return errors.New("runner not initialized")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	for {
		frame, err := r.Source.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("capture read failed, draining", zap.Error(err))
			}
			break
		}
		if r.Metrics != nil {
			r.Metrics.FramesTotal.Inc()
		}

		q, err := r.Decoder.Decode(frame)
		if errors.Is(err, quote.ErrNotQuote) {
			if r.Metrics != nil {
				r.Metrics.FramesSkipped.Inc()
			}
			continue
		}
		if err != nil {
			log.Debug("dropping undecodable quote frame", zap.Error(err))
			if r.Metrics != nil {
				r.Metrics.DecodeErrors.WithLabelValues(errKind(err)).Inc()
			}
			continue
		}
		if r.Metrics != nil {
			r.Metrics.QuotesDecoded.Inc()
		}

		// Accept time is expected to precede capture time; the reverse is a
		// data or clock anomaly, flagged but not fatal.
		if q.AcceptTime.After(q.PacketTime) {
			log.Warn("accept time later than capture time",
				zap.String("issue_code", q.IssueCode),
				zap.Time("accept_time", q.AcceptTime),
				zap.Time("packet_time", q.PacketTime))
			if r.Metrics != nil {
				r.Metrics.ClockAnomalies.Inc()
			}
		}

		for _, ready := range r.Window.DrainReady(q.AcceptTime) {
			if err := r.emit(ready); err != nil {
				return err
			}
		}
		r.Window.Insert(q)
		if r.Metrics != nil {
			r.Metrics.WindowSize.Set(float64(r.Window.Len()))
		}
	}

	for _, q := range r.Window.DrainAll() {
		if err := r.emit(q); err != nil {
			return err
		}
	}
	if r.Metrics != nil {
		r.Metrics.WindowSize.Set(0)
	}
	return r.Emitter.Flush()
}

func (r *Runner) emit(q quote.Quote) error {
	if err := r.Emitter.Emit(q); err != nil {
		return fmt.Errorf("emit quote: %w", err)
	}
	if r.Metrics != nil {
		r.Metrics.QuotesEmitted.Inc()
	}
	return nil
}

func errKind(err error) string {
	var fe *quote.FieldError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return "unknown"
}
