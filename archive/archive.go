// Package archive persists decoded events to Lode datasets, partitioned
// so a day's decode sessions can be queried per source and event kind.
//
// Layout: Hive partitions source/day/kind with a JSONL codec. Filesystem
// and S3 backends share the same layout, so an archive written locally
// can be synced to a bucket unchanged.
package archive

import (
	"context"
	"time"

	"github.com/smelt-io/smelt/sink"
	"github.com/smelt-io/smelt/types"
)

// DeriveDay computes the day partition value from a session start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds archive partition configuration.
type Config struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// Source is the partition key for the stream origin ("stdin" or an
	// input path label).
	Source string
	// Day is the partition key derived from session start (YYYY-MM-DD UTC).
	Day string
}

// Client abstracts the archive storage client. Real implementations
// connect to Lode; stubs are used for testing.
type Client interface {
	// WriteEvents writes a batch of decoded events. Must preserve
	// ordering within the batch.
	WriteEvents(ctx context.Context, events []types.Event) error

	// Close releases client resources.
	Close() error
}

// Sink adapts a Client to the sink.Sink interface.
type Sink struct {
	client Client
}

// NewSink creates an archive sink over the given client.
func NewSink(client Client) *Sink {
	return &Sink{client: client}
}

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, events []types.Event) error {
	return s.client.WriteEvents(ctx, events)
}

// Close implements sink.Sink.
func (s *Sink) Close() error {
	return s.client.Close()
}

var _ sink.Sink = (*Sink)(nil)
