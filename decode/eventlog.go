package decode

import "github.com/smelt-io/smelt/types"

// EmitFunc receives fully formed events as they become available during a
// decode step. Global messages are emitted immediately; artifact and build
// events are emitted at the exact step their structure completes. A single
// Decode call may emit zero, one, or two events (an artifact completion can
// also complete its build).
type EmitFunc func(types.Event)

// EventLog is the stream-level dispatcher. It routes each line either to
// the global message path or to the decoder for its build name, creating
// that decoder on first mention. Build decoders are never removed: a
// finished build stays resident in Done state for the lifetime of the
// EventLog, so memory grows with the number of distinct build names.
//
// EventLog is not safe for concurrent use. Callers must feed lines in
// stream order; the per-build sub-sequence order is assumed, not enforced.
type EventLog struct {
	builds map[string]*buildDecoder
}

// NewEventLog creates an empty event log decoder.
func NewEventLog() *EventLog {
	return &EventLog{builds: make(map[string]*buildDecoder)}
}

// Decode processes one line. The stream as a whole has no done state (it
// is EOF-driven by the caller), so Decode reports only whether this line
// was decodable: a nil error means keep feeding lines, a non-nil error
// means the session is corrupt from this point and must be abandoned.
func (l *EventLog) Decode(line *Line, emit EmitFunc) error {
	timestamp, ok := line.Next()
	if !ok {
		return &MissingTokenError{Stage: StageLog, Want: "timestamp"}
	}
	buildName, ok := line.Next()
	if !ok {
		return &MissingTokenError{Stage: StageLog, Want: "build name"}
	}

	if buildName == "" {
		return l.decodeGlobal(timestamp, line, emit)
	}

	build, known := l.builds[buildName]
	if !known {
		build = &buildDecoder{}
		l.builds[buildName] = build
	}

	// Completion callbacks fired during delegation are re-wrapped here
	// with the line's timestamp and its build name. The whole-stream
	// status stays partial even when this line completed a build.
	_, err := build.decode(line,
		func(artifact types.Artifact) {
			emit(types.NewArtifactEvent(timestamp, buildName, artifact))
		},
		func(b types.Build) {
			emit(types.NewBuildEvent(timestamp, buildName, b))
		},
	)
	return err
}

// decodeGlobal handles a line with an empty build name. Global messages
// never touch the build mapping and carry no partial/complete status.
func (l *EventLog) decodeGlobal(timestamp string, line *Line, emit EmitFunc) error {
	kind, ok := line.Next()
	if !ok {
		return &MissingTokenError{Stage: StageLog, Want: "global message type"}
	}
	if kind != "ui" {
		return &TagError{Stage: StageLog, Expected: "ui", Actual: kind}
	}

	levelTok, ok := line.Next()
	if !ok {
		return &MissingTokenError{Stage: StageLog, Want: "ui message level"}
	}
	var level types.UILevel
	switch levelTok {
	case "say":
		level = types.UILevelSay
	case "message":
		level = types.UILevelMessage
	case "error":
		level = types.UILevelError
	default:
		return &UnknownTokenError{Stage: StageLog, Field: "ui message level", Token: levelTok}
	}

	text, ok := line.Next()
	if !ok {
		return &MissingTokenError{Stage: StageLog, Want: "ui message text"}
	}

	emit(types.NewMessageEvent(timestamp, level, text))
	return nil
}

// BuildCount reports how many distinct build names have been seen. The
// mapping grows monotonically; completed builds are counted too.
func (l *EventLog) BuildCount() int {
	return len(l.builds)
}

// CompletedBuilds reports how many builds have reached their terminal
// state.
func (l *EventLog) CompletedBuilds() int {
	n := 0
	for _, b := range l.builds {
		if b.state == buildDone {
			n++
		}
	}
	return n
}
