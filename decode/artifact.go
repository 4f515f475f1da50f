package decode

import (
	"fmt"
	"strconv"

	"github.com/smelt-io/smelt/types"
)

// artifactState enumerates the strictly forward states of an artifact
// decoder. Transitions never go backward and never re-enter artifactDone.
type artifactState int

const (
	// artifactRoot: no fields seen yet.
	artifactRoot artifactState = iota
	// artifactHasBuilderID: builder-id line consumed.
	artifactHasBuilderID
	// artifactHasID: id line consumed (empty token maps to no id).
	artifactHasID
	// artifactHasDescription: string line consumed.
	artifactHasDescription
	// artifactListingFiles: files-count line consumed; file slots allocated.
	artifactListingFiles
	// artifactDone: terminal.
	artifactDone
)

// artifactDecoder reconstructs one Artifact from its fixed field-line
// sequence. Zero value is a decoder at artifactRoot.
type artifactDecoder struct {
	state artifactState

	builderID   string
	id          *string
	description string

	// remaining counts file lines still expected. It decrements once per
	// file line, so a duplicate slot index both overwrites the earlier
	// name and leaves another slot unfilled, which surfaces as
	// ErrUnfilledFileSlot at the end tag.
	remaining int
	files     []*string

	// artifact holds the finished record once state is artifactDone.
	artifact types.Artifact
}

// decode advances the state machine by one line. The leading token of the
// line must be the tag required by the current state. On the end tag the
// finished artifact is passed to emit exactly once, and the returned
// status is StatusDone.
func (d *artifactDecoder) decode(line *Line, emit func(types.Artifact)) (Status, error) {
	tag, ok := line.Next()
	if !ok {
		return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "tag"}
	}

	switch d.state {
	case artifactRoot:
		if tag != "builder-id" {
			return StatusPartial, &TagError{Stage: StageArtifact, Expected: "builder-id", Actual: tag}
		}
		id, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "builder id"}
		}
		d.builderID = id
		d.state = artifactHasBuilderID

	case artifactHasBuilderID:
		if tag != "id" {
			return StatusPartial, &TagError{Stage: StageArtifact, Expected: "id", Actual: tag}
		}
		id, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "artifact id"}
		}
		if id != "" {
			d.id = &id
		}
		d.state = artifactHasID

	case artifactHasID:
		if tag != "string" {
			return StatusPartial, &TagError{Stage: StageArtifact, Expected: "string", Actual: tag}
		}
		descr, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "description"}
		}
		d.description = descr
		d.state = artifactHasDescription

	case artifactHasDescription:
		if tag != "files-count" {
			return StatusPartial, &TagError{Stage: StageArtifact, Expected: "files-count", Actual: tag}
		}
		tok, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "file count"}
		}
		count, err := strconv.Atoi(tok)
		if err != nil || count < 0 {
			return StatusPartial, &NumberError{Stage: StageArtifact, Field: "files-count", Token: tok, Err: err}
		}
		d.remaining = count
		d.files = make([]*string, count)
		d.state = artifactListingFiles

	case artifactListingFiles:
		if d.remaining == 0 {
			if tag != "end" {
				return StatusPartial, &TagError{Stage: StageArtifact, Expected: "end", Actual: tag}
			}
			return d.finish(emit)
		}
		if tag != "file" {
			return StatusPartial, &TagError{Stage: StageArtifact, Expected: "file", Actual: tag}
		}
		tok, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "file index"}
		}
		index, err := strconv.Atoi(tok)
		if err != nil {
			return StatusPartial, &NumberError{Stage: StageArtifact, Field: "file index", Token: tok, Err: err}
		}
		name, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageArtifact, Want: "file name"}
		}
		if index < 0 || index >= len(d.files) {
			return StatusPartial, &SlotError{Stage: StageArtifact, Index: index, Count: len(d.files)}
		}
		d.files[index] = &name
		d.remaining--

	case artifactDone:
		return StatusPartial, ErrArtifactDone
	}

	return StatusPartial, nil
}

// finish assembles the artifact, fires the callback, and moves to
// artifactDone. Every file slot must be filled; an unfilled slot means
// the declared count was consumed by duplicate indices.
func (d *artifactDecoder) finish(emit func(types.Artifact)) (Status, error) {
	files := make([]string, len(d.files))
	for i, name := range d.files {
		if name == nil {
			return StatusPartial, fmt.Errorf("%w: slot %d", ErrUnfilledFileSlot, i)
		}
		files[i] = *name
	}

	d.artifact = types.Artifact{
		BuilderID:   d.builderID,
		ID:          d.id,
		Description: d.description,
		Files:       files,
	}
	d.state = artifactDone

	emit(d.artifact)
	return StatusDone, nil
}

// finished returns the completed artifact. The second return is false
// until the decoder reaches artifactDone.
func (d *artifactDecoder) finished() (types.Artifact, bool) {
	if d.state != artifactDone {
		return types.Artifact{}, false
	}
	return d.artifact, true
}
