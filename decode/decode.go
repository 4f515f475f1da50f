// Package decode implements the resumable state machines that reconstruct
// build-log structures from an incremental, line-oriented stream.
//
// A stream is a sequence of comma-separated lines. Every line starts with a
// timestamp token and a build-name token. An empty build name marks a global
// UI message; a non-empty name routes the rest of the line to that build's
// decoder, which in turn delegates artifact sub-lines to per-slot artifact
// decoders. A single build's description may be spread across many lines,
// interleaved with other builds and with global messages.
//
// Grammar per line, after the common "timestamp,build_name," prefix:
//
//	global:  ui,<say|message|error>,<text>
//	build:   artifact-count,<N>          (first line for a build)
//	         artifact,<slot>,<artifact sub-line>
//	artifact sub-lines, strictly in order:
//	         builder-id,<id>
//	         id,<id or empty>
//	         string,<text>
//	         files-count,<N>
//	         file,<index>,<name>          (N times, indices in any order)
//	         end
//
// Decoders retain only reconstructed fragments, never raw input. All state
// is exclusively owned top-down (EventLog owns build decoders, build
// decoders own artifact decoders); decoding is single-threaded and
// synchronous. Malformed input is fatal to the whole decode session: no
// resynchronization is attempted.
package decode

import "strings"

// Status is the completion result of one decode step: whether the structure
// being decoded is now fully assembled or still partial.
type Status int

const (
	// StatusPartial means the structure needs more lines.
	StatusPartial Status = iota
	// StatusDone means this step completed the structure.
	StatusDone
)

// String returns "partial" or "done".
func (s Status) String() string {
	if s == StatusDone {
		return "done"
	}
	return "partial"
}

// Line is a forward-only cursor over the tokens of one input line.
// Decoders consume tokens strictly left to right and never rewind.
type Line struct {
	tokens []string
	pos    int
}

// NewLine wraps an already-split token sequence.
func NewLine(tokens []string) *Line {
	return &Line{tokens: tokens}
}

// Split tokenizes a raw line on commas. Tokens carry no escaping; a comma
// always separates tokens.
func Split(raw string) *Line {
	return NewLine(strings.Split(raw, ","))
}

// Next consumes and returns the next token. The second return is false
// when the line is exhausted.
func (l *Line) Next() (string, bool) {
	if l.pos >= len(l.tokens) {
		return "", false
	}
	tok := l.tokens[l.pos]
	l.pos++
	return tok, true
}
