// Package colexerr defines the error taxonomy spec.md §7 requires:
// Io, VersionMismatch, Corrupt, and BadArgument, each wrapping an
// underlying cause and classifiable with errors.Is/errors.As.
//
// Grounded on zed's sentinel-error style (pkg/peeker's
// ErrBufferOverflow/ErrTruncated) generalized to a single wrapped Kind
// so callers can distinguish "stop reading, this segment is broken"
// (Io, Corrupt) from "refuse the call" (BadArgument) from "can't even
// open this" (VersionMismatch) without string matching.
package colexerr

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Kind classifies an Error per spec.md §7.
type Kind int

const (
	// KindIO marks an underlying read failure. Sticky: once observed
	// by a reader, every subsequent read on that reader yields it.
	KindIO Kind = iota
	// KindVersionMismatch is returned only at open time.
	KindVersionMismatch
	// KindCorrupt marks an internal invariant violation: a bad
	// packing tag, an out-of-range dictionary index, a PGM blob size
	// mismatch.
	KindCorrupt
	// KindBadArgument marks a programmer error at the API boundary:
	// asking an integer iterator for a blob, an unsupported filter
	// shape, a NaN range endpoint.
	KindBadArgument
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindVersionMismatch:
		return "version-mismatch"
	case KindCorrupt:
		return "corrupt"
	case KindBadArgument:
		return "bad-argument"
	default:
		return "unknown"
	}
}

// Error is the error type every package in this module returns for
// taxonomy-classified failures.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "block.ReadHeader"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, colexerr.KindCorrupt) work by comparing Kind
// values when the target is itself a *Error with no wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil
}

// New constructs an *Error of the given kind.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// IO wraps cause as a KindIO error.
func IO(op string, cause error) *Error { return New(KindIO, op, cause) }

// Corrupt wraps cause (or a formatted message) as a KindCorrupt error.
func Corrupt(op string, cause error) *Error { return New(KindCorrupt, op, cause) }

// Corruptf builds a KindCorrupt error from a format string.
func Corruptf(op, format string, args ...any) *Error {
	return New(KindCorrupt, op, fmt.Errorf(format, args...))
}

// BadArgument wraps cause as a KindBadArgument error.
func BadArgument(op string, cause error) *Error { return New(KindBadArgument, op, cause) }

// BadArgumentf builds a KindBadArgument error from a format string.
func BadArgumentf(op, format string, args ...any) *Error {
	return New(KindBadArgument, op, fmt.Errorf(format, args...))
}

// VersionMismatch builds a KindVersionMismatch error.
func VersionMismatch(op string, got, want uint32) *Error {
	return New(KindVersionMismatch, op, fmt.Errorf("got version %d, support up to %d", got, want))
}

// CloseAll closes every non-nil closer and aggregates every non-nil
// error they return into one via go.uber.org/multierr, so a caller
// holding several io.Closers (a log sink's backing file, a logger's
// own Sync, ...) sees every failure instead of only the first. Closers
// are closed in order regardless of earlier failures.
func CloseAll(closers ...io.Closer) error {
	var err error
	for _, c := range closers {
		if c == nil {
			continue
		}
		err = multierr.Append(err, c.Close())
	}
	return err
}

// KindOf classifies err, unwrapping to find the nearest *Error if any.
// Returns ok=false for errors this package didn't produce (e.g. a bare
// io.EOF from ioreader, which callers should treat as KindIO).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
