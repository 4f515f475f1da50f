// Package adapter defines the notification boundary for completed builds.
//
// Adapters publish build completion notifications to downstream systems
// (CI dashboards, chat bridges). The CLI owns adapter lifecycle; users
// provide configuration only. Adapters see summaries, not full builds:
// consumers wanting every artifact subscribe to the archive or the frame
// relay instead.
package adapter

import (
	"context"

	"github.com/smelt-io/smelt/types"
)

// BuildCompletedEvent is the payload published when a build finishes
// decoding.
type BuildCompletedEvent struct {
	EventType     string `json:"event_type"` // always "build_completed"
	BuildName     string `json:"build_name"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"` // log timestamp of the completing line
	ArtifactCount int    `json:"artifact_count"`
	FileCount     int    `json:"file_count"`
	Version       string `json:"version"`
}

// NewBuildCompletedEvent summarizes a build-completion event for
// publication. Source labels the input stream ("stdin" or a path).
func NewBuildCompletedEvent(event types.Event, source string) *BuildCompletedEvent {
	files := 0
	for _, a := range event.Build.Artifacts {
		files += len(a.Files)
	}
	return &BuildCompletedEvent{
		EventType:     "build_completed",
		BuildName:     event.BuildName,
		Source:        source,
		Timestamp:     event.Timestamp,
		ArtifactCount: len(event.Build.Artifacts),
		FileCount:     files,
		Version:       types.Version,
	}
}

// Adapter publishes build completion events to a downstream system.
type Adapter interface {
	// Publish sends a build completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *BuildCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
