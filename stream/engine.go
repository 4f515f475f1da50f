// Package stream drives the decoder over a raw build-log stream. The
// Engine owns the only contact with raw input: it reads lines, splits
// them into token cursors, and feeds the decoder one line per step. The
// decoder itself performs no I/O.
package stream

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/smelt-io/smelt/decode"
	"github.com/smelt-io/smelt/log"
	"github.com/smelt-io/smelt/metrics"
	"github.com/smelt-io/smelt/sink"
	"github.com/smelt-io/smelt/types"
)

// ErrorKind classifies engine errors for outcome determination.
type ErrorKind int

const (
	// ErrorDecode indicates a fatal decode error. The session is corrupt
	// from this point; no resynchronization is attempted.
	ErrorDecode ErrorKind = iota
	// ErrorRead indicates a failure reading the underlying stream.
	ErrorRead
	// ErrorSink indicates a sink write failure.
	ErrorSink
	// ErrorCanceled indicates context cancellation.
	ErrorCanceled
)

// Error wraps an engine failure with its classification.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if the error is a fatal decode error.
func IsDecodeError(err error) bool {
	var engErr *Error
	return errors.As(err, &engErr) && engErr.Kind == ErrorDecode
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	var engErr *Error
	return errors.As(err, &engErr) && engErr.Kind == ErrorCanceled
}

// Config configures an Engine. All fields are optional.
type Config struct {
	// Logger receives structured progress and error logs.
	Logger *log.Logger
	// Collector accumulates session metrics. Nil disables metrics.
	Collector *metrics.Collector
	// Sink, if set, receives every emitted event after the consumer
	// callback. A sink write failure terminates the session.
	Sink sink.Sink
}

// Engine feeds a build-log stream through an EventLog decoder and
// delivers emitted events to a consumer callback and an optional sink.
//
// The engine is strictly sequential: one line is fully decoded, and its
// events delivered, before the next line is read. It assumes the reader
// yields lines in the stream's original order.
type Engine struct {
	scanner   *bufio.Scanner
	eventLog  *decode.EventLog
	consumer  decode.EmitFunc
	logger    *log.Logger
	collector *metrics.Collector
	sink      sink.Sink
}

// NewEngine creates an engine reading from r. The consumer callback is
// invoked synchronously for every emitted event, in emission order.
func NewEngine(r io.Reader, consumer decode.EmitFunc, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		scanner:   bufio.NewScanner(r),
		eventLog:  decode.NewEventLog(),
		consumer:  consumer,
		logger:    logger,
		collector: cfg.Collector,
		sink:      cfg.Sink,
	}
}

// Run decodes the stream until EOF or a fatal error.
// Returns:
//   - nil: stream ended cleanly (EOF)
//   - *Error with Kind=ErrorDecode: malformed input, session corrupt
//   - *Error with Kind=ErrorRead: underlying read failure
//   - *Error with Kind=ErrorSink: sink write failure
//   - *Error with Kind=ErrorCanceled: context canceled
func (e *Engine) Run(ctx context.Context) error {
	for e.scanner.Scan() {
		select {
		case <-ctx.Done():
			return &Error{Kind: ErrorCanceled, Err: ctx.Err()}
		default:
		}

		raw := e.scanner.Text()
		e.collector.IncLinesRead()

		var batch []types.Event
		err := e.eventLog.Decode(decode.Split(raw), func(event types.Event) {
			e.record(event)
			batch = append(batch, event)
			e.consumer(event)
		})
		if err != nil {
			e.collector.IncDecodeErrors()
			e.logger.Error("decode error", map[string]any{
				"line":  raw,
				"error": err.Error(),
			})
			return &Error{Kind: ErrorDecode, Err: err}
		}

		e.collector.SetBuildsSeen(int64(e.eventLog.BuildCount()))

		if e.sink != nil && len(batch) > 0 {
			if err := e.sink.Write(ctx, batch); err != nil {
				e.collector.IncSinkWriteFailure()
				e.logger.Error("sink write failed", map[string]any{
					"events": len(batch),
					"error":  err.Error(),
				})
				return &Error{Kind: ErrorSink, Err: err}
			}
			e.collector.IncSinkWriteSuccess()
		}
	}

	if err := e.scanner.Err(); err != nil {
		e.logger.Error("stream read failed", map[string]any{"error": err.Error()})
		return &Error{Kind: ErrorRead, Err: err}
	}

	e.logger.Info("stream complete", map[string]any{
		"builds_seen":      e.eventLog.BuildCount(),
		"builds_completed": e.eventLog.CompletedBuilds(),
	})
	return nil
}

// record updates per-kind counters for an emitted event.
func (e *Engine) record(event types.Event) {
	switch event.Kind {
	case types.EventKindMessage:
		e.collector.IncMessages()
	case types.EventKindArtifact:
		e.collector.IncArtifacts()
	case types.EventKindBuild:
		e.collector.IncBuilds()
	}
}
