// Package aggregate folds a decode session's event history into a single
// document, for callers that want one summary at EOF instead of a stream
// of individual events.
package aggregate

import "github.com/smelt-io/smelt/types"

// BuildRecord is one completed build in the aggregated document.
type BuildRecord struct {
	// Name is the build name from the log.
	Name string `json:"name"`
	// CompletedAt is the timestamp of the line that completed the build.
	CompletedAt string `json:"completed_at"`
	// Artifacts are the build's outputs in slot order.
	Artifacts []types.Artifact `json:"artifacts"`
}

// MessageRecord is one global UI message in the aggregated document.
type MessageRecord struct {
	Timestamp string        `json:"timestamp"`
	Level     types.UILevel `json:"level"`
	Text      string        `json:"text"`
}

// Document is the aggregation of a full decode session: every completed
// build and every global message, in the order they appeared.
type Document struct {
	Builds   []BuildRecord   `json:"builds"`
	Messages []MessageRecord `json:"messages"`
}

// Aggregator consumes events and accumulates a Document. It keeps only
// completed structures; artifact events are redundant with the build
// events that follow them and are not stored separately.
//
// Aggregator is not safe for concurrent use, matching the synchronous
// delivery contract of the decoder.
type Aggregator struct {
	doc Document
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Add folds one event into the document.
func (a *Aggregator) Add(event types.Event) {
	switch event.Kind {
	case types.EventKindMessage:
		a.doc.Messages = append(a.doc.Messages, MessageRecord{
			Timestamp: event.Timestamp,
			Level:     event.Message.Level,
			Text:      event.Message.Text,
		})
	case types.EventKindBuild:
		a.doc.Builds = append(a.doc.Builds, BuildRecord{
			Name:        event.BuildName,
			CompletedAt: event.Timestamp,
			Artifacts:   event.Build.Artifacts,
		})
	case types.EventKindArtifact:
		// Carried by the build event once the build completes.
	}
}

// Document returns the accumulated document. Slices are never nil so the
// document renders as empty lists rather than null.
func (a *Aggregator) Document() Document {
	doc := a.doc
	if doc.Builds == nil {
		doc.Builds = []BuildRecord{}
	}
	if doc.Messages == nil {
		doc.Messages = []MessageRecord{}
	}
	return doc
}
