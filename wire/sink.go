package wire

import (
	"context"
	"io"

	"github.com/smelt-io/smelt/sink"
	"github.com/smelt-io/smelt/types"
)

// Sink writes decoded events to a frame stream. It implements sink.Sink
// over any io.WriteCloser (a file, a pipe to a downstream consumer).
type Sink struct {
	encoder *FrameEncoder
	closer  io.Closer
}

// NewSink creates a frame sink over w.
func NewSink(w io.WriteCloser) *Sink {
	return &Sink{encoder: NewFrameEncoder(w), closer: w}
}

// Write implements sink.Sink. Events are framed in batch order.
func (s *Sink) Write(_ context.Context, events []types.Event) error {
	for _, event := range events {
		if err := s.encoder.WriteEvent(event); err != nil {
			return err
		}
	}
	return nil
}

// Close implements sink.Sink.
func (s *Sink) Close() error {
	return s.closer.Close()
}

var _ sink.Sink = (*Sink)(nil)
