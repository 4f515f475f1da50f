// Package types defines the domain model shared by the smelt decoder,
// sinks, and CLI: artifacts, builds, and the events that announce them.
package types

// EventKind discriminates the payload carried by an Event.
type EventKind string

// Event kind constants. The values double as the accepted --filter
// selectors (pluralized) and the archive partition keys.
const (
	// EventKindMessage is a global UI notice, independent of any build.
	EventKindMessage EventKind = "message"
	// EventKindArtifact announces a completed artifact within a named build.
	EventKindArtifact EventKind = "artifact"
	// EventKindBuild announces a completed build.
	EventKindBuild EventKind = "build"
)

// UILevel is the severity of a global UI message.
type UILevel string

// UI message levels as they appear on the wire.
const (
	UILevelSay     UILevel = "say"
	UILevelMessage UILevel = "message"
	UILevelError   UILevel = "error"
)

// UIMessage is a global UI notice decoded from a line with an empty
// build name.
type UIMessage struct {
	Level UILevel `json:"level" msgpack:"level"`
	Text  string  `json:"text" msgpack:"text"`
}

// Artifact is one completed build output. Files are positional during
// decoding but always stored here in slot-index order, fully populated:
// a partial artifact is never observable outside the decoder.
type Artifact struct {
	// BuilderID identifies the builder that produced this artifact.
	BuilderID string `json:"builder_id" msgpack:"builder_id"`
	// ID is the optional artifact identifier. Nil when the log carried
	// an empty id token.
	ID *string `json:"id,omitempty" msgpack:"id,omitempty"`
	// Description is the free-form descriptive string from the log.
	Description string `json:"description" msgpack:"description"`
	// Files are the produced file names in slot-index order.
	Files []string `json:"files" msgpack:"files"`
}

// Build is one named build's complete output set. Every element is a
// completed Artifact; the decoder never assembles a Build from partial
// artifacts.
type Build struct {
	Artifacts []Artifact `json:"artifacts" msgpack:"artifacts"`
}

// Event is the unit delivered to consumers: a timestamp, a kind, and
// exactly one payload field matching the kind. BuildName is set for
// artifact and build events and empty for messages.
type Event struct {
	Timestamp string    `json:"timestamp" msgpack:"timestamp"`
	Kind      EventKind `json:"kind" msgpack:"kind"`
	BuildName string    `json:"build_name,omitempty" msgpack:"build_name,omitempty"`

	Message  *UIMessage `json:"message,omitempty" msgpack:"message,omitempty"`
	Artifact *Artifact  `json:"artifact,omitempty" msgpack:"artifact,omitempty"`
	Build    *Build     `json:"build,omitempty" msgpack:"build,omitempty"`
}

// NewMessageEvent wraps a UI message into an Event.
func NewMessageEvent(timestamp string, level UILevel, text string) Event {
	return Event{
		Timestamp: timestamp,
		Kind:      EventKindMessage,
		Message:   &UIMessage{Level: level, Text: text},
	}
}

// NewArtifactEvent wraps a completed artifact into an Event scoped to
// the build that produced it.
func NewArtifactEvent(timestamp, buildName string, artifact Artifact) Event {
	return Event{
		Timestamp: timestamp,
		Kind:      EventKindArtifact,
		BuildName: buildName,
		Artifact:  &artifact,
	}
}

// NewBuildEvent wraps a completed build into an Event.
func NewBuildEvent(timestamp, buildName string, build Build) Event {
	return Event{
		Timestamp: timestamp,
		Kind:      EventKindBuild,
		BuildName: buildName,
		Build:     &build,
	}
}
