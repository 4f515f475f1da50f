package decode

import (
	"errors"
	"fmt"
)

// Stage identifies which decoder detected an error.
type Stage string

// Decoder stages.
const (
	StageLog      Stage = "log"
	StageBuild    Stage = "build"
	StageArtifact Stage = "artifact"
)

// Sentinel errors for terminal-state violations.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrArtifactDone is returned when a line arrives for an artifact
	// that already finished decoding.
	ErrArtifactDone = errors.New("artifact decoder already finished")

	// ErrBuildDone is returned when a line arrives for a build that
	// already finished decoding.
	ErrBuildDone = errors.New("build decoder already finished")

	// ErrIncompleteArtifact is returned when a build reaches its declared
	// artifact count but a slot does not hold a finished artifact.
	ErrIncompleteArtifact = errors.New("build finalized with incomplete artifact")

	// ErrUnfilledFileSlot is returned when an artifact's end tag arrives
	// with a file slot still empty. The declared file count was consumed
	// by duplicate slot indices, which silently overwrite.
	ErrUnfilledFileSlot = errors.New("artifact finalized with unfilled file slot")
)

// TagError reports a line whose leading tag token does not match what the
// current decoder state requires.
type TagError struct {
	// Stage is the decoder that detected the mismatch.
	Stage Stage
	// Expected is the tag required by the current state.
	Expected string
	// Actual is the tag found on the line.
	Actual string
}

func (e *TagError) Error() string {
	return fmt.Sprintf("%s decoder: unexpected tag %q, expected %q", e.Stage, e.Actual, e.Expected)
}

// MissingTokenError reports a line that ended where a token was required.
type MissingTokenError struct {
	Stage Stage
	// Want names the missing token (e.g. "timestamp", "file name").
	Want string
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("%s decoder: missing %s token", e.Stage, e.Want)
}

// NumberError reports an unparsable or out-of-range numeric token.
type NumberError struct {
	Stage Stage
	// Field names the numeric field (e.g. "files-count", "file index").
	Field string
	// Token is the offending token.
	Token string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("%s decoder: invalid %s %q", e.Stage, e.Field, e.Token)
}

// Unwrap returns the underlying parse error.
func (e *NumberError) Unwrap() error {
	return e.Err
}

// SlotError reports a slot index outside the declared slot range.
type SlotError struct {
	Stage Stage
	// Index is the out-of-range slot index from the line.
	Index int
	// Count is the declared slot count.
	Count int
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s decoder: slot index %d out of range (declared count %d)", e.Stage, e.Index, e.Count)
}

// UnknownTokenError reports a selector token outside its closed set, such
// as an unknown global UI message level.
type UnknownTokenError struct {
	Stage Stage
	// Field names the selector (e.g. "ui message level").
	Field string
	// Token is the offending token.
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("%s decoder: unknown %s %q", e.Stage, e.Field, e.Token)
}
