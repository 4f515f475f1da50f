// Package metrics provides per-session metrics collection for a decode
// run. The Collector accumulates counters while the stream engine feeds
// lines; it is a leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Stream progress
	LinesRead    int64
	DecodeErrors int64

	// Emitted events by kind
	Messages  int64
	Artifacts int64
	Builds    int64

	// In-flight state
	BuildsSeen      int64
	BuildsCompleted int64

	// Sink activity
	SinkWriteSuccess int64
	SinkWriteFailure int64

	// Dimensions (informational, set at construction)
	Source  string
	Backend string
}

// Collector accumulates metrics during one decode session. Thread-safe
// via sync.Mutex; all increment methods are nil-receiver safe so callers
// can pass a nil collector to disable metrics entirely.
type Collector struct {
	mu sync.Mutex

	linesRead    int64
	decodeErrors int64

	messages  int64
	artifacts int64
	builds    int64

	buildsSeen      int64
	buildsCompleted int64

	sinkWriteSuccess int64
	sinkWriteFailure int64

	source  string
	backend string
}

// NewCollector creates a Collector with dimension labels. Source is the
// input label ("stdin" or a path); backend names the active sink backend
// ("none", "fs", "s3", "frames").
func NewCollector(source, backend string) *Collector {
	return &Collector{source: source, backend: backend}
}

// IncLinesRead records one input line handed to the decoder.
func (c *Collector) IncLinesRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linesRead++
	c.mu.Unlock()
}

// IncDecodeErrors records a fatal decode error.
func (c *Collector) IncDecodeErrors() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// IncMessages records an emitted global message event.
func (c *Collector) IncMessages() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messages++
	c.mu.Unlock()
}

// IncArtifacts records an emitted artifact-completion event.
func (c *Collector) IncArtifacts() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.artifacts++
	c.mu.Unlock()
}

// IncBuilds records an emitted build-completion event.
func (c *Collector) IncBuilds() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.builds++
	c.buildsCompleted++
	c.mu.Unlock()
}

// SetBuildsSeen records the current number of distinct build names.
func (c *Collector) SetBuildsSeen(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsSeen = n
	c.mu.Unlock()
}

// IncSinkWriteSuccess records a successful sink write (per-call, not
// per-event).
func (c *Collector) IncSinkWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sinkWriteSuccess++
	c.mu.Unlock()
}

// IncSinkWriteFailure records a failed sink write (per-call).
func (c *Collector) IncSinkWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.sinkWriteFailure++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics. The
// Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		LinesRead:    c.linesRead,
		DecodeErrors: c.decodeErrors,

		Messages:  c.messages,
		Artifacts: c.artifacts,
		Builds:    c.builds,

		BuildsSeen:      c.buildsSeen,
		BuildsCompleted: c.buildsCompleted,

		SinkWriteSuccess: c.sinkWriteSuccess,
		SinkWriteFailure: c.sinkWriteFailure,

		Source:  c.source,
		Backend: c.backend,
	}
}
