package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/smelt-io/smelt/types"
)

// ErrInvalidBufferConfig is returned when a Buffered sink has no limits.
var ErrInvalidBufferConfig = errors.New("invalid config: at least one of MaxEvents or MaxBytes must be set")

// BufferedConfig configures a Buffered sink.
type BufferedConfig struct {
	// MaxEvents flushes the buffer once it holds this many events.
	// Zero means no event-count limit (use MaxBytes instead).
	MaxEvents int

	// MaxBytes flushes the buffer once its estimated size reaches this
	// many bytes. Zero means no byte limit (use MaxEvents instead).
	MaxBytes int64
}

// DefaultBufferedConfig returns sensible defaults for a buffered sink.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{
		MaxEvents: 1000,
		MaxBytes:  10 * 1024 * 1024, // 10 MB
	}
}

// Buffered wraps a sink and batches writes. Decoded events accumulate
// until a size limit is reached, then the whole buffer is written to
// the inner sink in one call.
//
// Flush failures keep the buffer intact: events may be written twice
// on retry, but are never lost (at-least-once delivery).
type Buffered struct {
	inner  Sink
	config BufferedConfig

	mu          sync.Mutex
	buffer      []types.Event
	bufferBytes int64
}

// NewBuffered creates a buffered sink over inner.
// Returns an error if no buffer limit is configured.
func NewBuffered(inner Sink, config BufferedConfig) (*Buffered, error) {
	if config.MaxEvents <= 0 && config.MaxBytes <= 0 {
		return nil, ErrInvalidBufferConfig
	}
	return &Buffered{
		inner:  inner,
		config: config,
		buffer: make([]types.Event, 0, max(config.MaxEvents, 64)),
	}, nil
}

// Write implements Sink. Events are appended to the buffer; the buffer
// is flushed to the inner sink once a configured limit is reached.
func (b *Buffered) Write(ctx context.Context, events []types.Event) error {
	b.mu.Lock()
	for _, e := range events {
		b.buffer = append(b.buffer, e)
		b.bufferBytes += estimateEventSize(e)
	}
	full := (b.config.MaxEvents > 0 && len(b.buffer) >= b.config.MaxEvents) ||
		(b.config.MaxBytes > 0 && b.bufferBytes >= b.config.MaxBytes)
	b.mu.Unlock()

	if !full {
		return nil
	}
	return b.Flush(ctx)
}

// Flush writes all buffered events to the inner sink. On failure the
// buffer is preserved for retry.
func (b *Buffered) Flush(ctx context.Context) error {
	b.mu.Lock()
	events := b.buffer
	b.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	if err := b.inner.Write(ctx, events); err != nil {
		// Keep the buffer intact - prefer duplicates over loss
		return err
	}

	b.mu.Lock()
	// Drop only what was flushed; Write may have appended concurrently
	b.buffer = b.buffer[len(events):]
	b.bufferBytes = 0
	for _, e := range b.buffer {
		b.bufferBytes += estimateEventSize(e)
	}
	b.mu.Unlock()
	return nil
}

// Buffered returns the number of events currently awaiting flush.
func (b *Buffered) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

// Close flushes remaining events best-effort, then closes the inner sink.
func (b *Buffered) Close() error {
	flushErr := b.Flush(context.Background())
	closeErr := b.inner.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// estimateEventSize is a rough per-event byte estimate used only for
// buffer accounting, not for wire encoding.
func estimateEventSize(e types.Event) int64 {
	size := int64(64) + int64(len(e.Timestamp)+len(e.BuildName))
	if e.Message != nil {
		size += int64(len(e.Message.Text)) + 16
	}
	if e.Artifact != nil {
		size += artifactSize(*e.Artifact)
	}
	if e.Build != nil {
		for _, a := range e.Build.Artifacts {
			size += artifactSize(a)
		}
	}
	return size
}

func artifactSize(a types.Artifact) int64 {
	size := int64(len(a.BuilderID) + len(a.Description) + 32)
	if a.ID != nil {
		size += int64(len(*a.ID))
	}
	for _, f := range a.Files {
		size += int64(len(f)) + 8
	}
	return size
}

var _ Sink = (*Buffered)(nil)
