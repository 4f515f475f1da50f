package decode

import (
	"fmt"
	"strconv"

	"github.com/smelt-io/smelt/types"
)

// buildState enumerates the states of a build decoder.
type buildState int

const (
	// buildRoot: the build's first line (artifact-count) not yet seen.
	buildRoot buildState = iota
	// buildListing: artifact slots allocated, artifacts still decoding.
	buildListing
	// buildDone: terminal.
	buildDone
)

// buildDecoder reconstructs one Build. It owns a growable set of artifact
// decoders indexed by slot; the build completes once every declared slot
// holds a finished artifact, regardless of the order their lines arrive.
// Zero value is a decoder at buildRoot.
type buildDecoder struct {
	state buildState

	// remaining counts artifacts not yet finished. It decrements exactly
	// once per artifact, at the step where that artifact's delegated
	// decode returns StatusDone.
	remaining int
	slots     []*artifactDecoder
}

// decode advances the build by one line. Artifact completions observed
// during delegation are forwarded to onArtifact unchanged; the caller is
// responsible for re-tagging them with context. onBuild fires exactly once,
// when the last artifact completes.
func (d *buildDecoder) decode(line *Line, onArtifact func(types.Artifact), onBuild func(types.Build)) (Status, error) {
	tag, ok := line.Next()
	if !ok {
		return StatusPartial, &MissingTokenError{Stage: StageBuild, Want: "tag"}
	}

	switch d.state {
	case buildRoot:
		if tag != "artifact-count" {
			return StatusPartial, &TagError{Stage: StageBuild, Expected: "artifact-count", Actual: tag}
		}
		tok, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageBuild, Want: "artifact count"}
		}
		count, err := strconv.Atoi(tok)
		if err != nil || count < 0 {
			return StatusPartial, &NumberError{Stage: StageBuild, Field: "artifact-count", Token: tok, Err: err}
		}
		d.remaining = count
		d.slots = make([]*artifactDecoder, count)
		d.state = buildListing

	case buildListing:
		if tag != "artifact" {
			return StatusPartial, &TagError{Stage: StageBuild, Expected: "artifact", Actual: tag}
		}
		tok, ok := line.Next()
		if !ok {
			return StatusPartial, &MissingTokenError{Stage: StageBuild, Want: "artifact slot index"}
		}
		index, err := strconv.Atoi(tok)
		if err != nil {
			return StatusPartial, &NumberError{Stage: StageBuild, Field: "artifact slot index", Token: tok, Err: err}
		}
		if index < 0 || index >= len(d.slots) {
			return StatusPartial, &SlotError{Stage: StageBuild, Index: index, Count: len(d.slots)}
		}

		if d.slots[index] == nil {
			d.slots[index] = &artifactDecoder{}
		}
		status, err := d.slots[index].decode(line, onArtifact)
		if err != nil {
			return StatusPartial, err
		}
		if status == StatusDone {
			d.remaining--
		}
		if d.remaining == 0 {
			return d.finish(onBuild)
		}

	case buildDone:
		return StatusPartial, ErrBuildDone
	}

	return StatusPartial, nil
}

// finish assembles the build from its slots in index order, fires the
// callback, and moves to buildDone. Every slot must hold a finished
// artifact; anything else means the remaining count was corrupted.
func (d *buildDecoder) finish(onBuild func(types.Build)) (Status, error) {
	artifacts := make([]types.Artifact, len(d.slots))
	for i, slot := range d.slots {
		if slot == nil {
			return StatusPartial, fmt.Errorf("%w: slot %d", ErrIncompleteArtifact, i)
		}
		artifact, done := slot.finished()
		if !done {
			return StatusPartial, fmt.Errorf("%w: slot %d", ErrIncompleteArtifact, i)
		}
		artifacts[i] = artifact
	}

	d.state = buildDone
	d.slots = nil

	onBuild(types.Build{Artifacts: artifacts})
	return StatusDone, nil
}
