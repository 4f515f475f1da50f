// Package sink abstracts delivery of decoded events to downstream
// destinations: the binary frame relay, the partitioned archive, or stubs
// for testing. Sinks receive only complete events; the decoder never
// exposes partial structures.
package sink

import (
	"context"
	"sync"

	"github.com/smelt-io/smelt/types"
)

// Sink receives batches of decoded events.
//
// Methods are batch-oriented so callers can deliver one event at a time
// or buffer and flush. Implementations must preserve ordering within a
// batch. A write error is fatal to the decode session; sinks are not
// expected to retry internally unless documented otherwise.
type Sink interface {
	// Write persists a batch of events.
	Write(ctx context.Context, events []types.Event) error

	// Close releases any resources held by the sink.
	Close() error
}

// Multi fans a write out to several sinks in order. The first error wins;
// later sinks are skipped for that batch. Close closes every sink and
// returns the first close error.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink. A Multi over zero sinks discards
// events.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Write implements Sink.
func (m *Multi) Write(ctx context.Context, events []types.Event) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

// Close implements Sink.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stub is a test sink that records writes without persisting.
type Stub struct {
	mu sync.Mutex

	// EventsWritten is the total count of events written.
	EventsWritten int64
	// Batches is the number of Write calls.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool

	// Written stores all written events for inspection.
	Written []types.Event

	// ErrorOnWrite, if non-nil, is returned by Write.
	ErrorOnWrite error
}

// NewStub creates a new stub sink for testing.
func NewStub() *Stub {
	return &Stub{Written: make([]types.Event, 0)}
}

// Write records the events without persisting.
func (s *Stub) Write(_ context.Context, events []types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}

	s.Batches++
	s.EventsWritten += int64(len(events))
	s.Written = append(s.Written, events...)
	return nil
}

// Close marks the sink as closed.
func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Stats returns a snapshot of stub statistics.
func (s *Stub) Stats() StubStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StubStats{
		EventsWritten: s.EventsWritten,
		Batches:       s.Batches,
		Closed:        s.Closed,
	}
}

// StubStats is a snapshot of Stub statistics.
type StubStats struct {
	EventsWritten int64
	Batches       int64
	Closed        bool
}

// Verify implementations.
var (
	_ Sink = (*Multi)(nil)
	_ Sink = (*Stub)(nil)
)
