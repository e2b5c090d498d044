// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package kind defines the closed set of error categories that the source,
// blockdev, cursor, registry, and formats packages report through.
package kind

import "fmt"

// Kind is one of a small closed set of error categories. New values must not
// be added without updating every caller that switches on Kind.
type Kind int

const (
	// InvalidArgument covers negative offsets/lengths and malformed navigation requests.
	InvalidArgument Kind = iota
	// TruncatedSource covers a ReadExact-style request that could not be satisfied in full.
	TruncatedSource
	// FormatMagicMismatch is used only internally by matches probes; it must never escape one.
	FormatMagicMismatch
	// UnsupportedFormatFeature covers a recognised but unimplemented on-disk variant.
	UnsupportedFormatFeature
	// CorruptMetadata covers structural inconsistencies in decoded metadata.
	CorruptMetadata
	// IoFailure covers a failing read from the underlying OS source.
	IoFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case TruncatedSource:
		return "truncated source"
	case FormatMagicMismatch:
		return "format magic mismatch"
	case UnsupportedFormatFeature:
		return "unsupported format feature"
	case CorruptMetadata:
		return "corrupt metadata"
	case IoFailure:
		return "io failure"
	default:
		return "unknown error kind"
	}
}

// Error is the error type returned across package boundaries in this module.
// Op names the operation that failed (e.g. "ext.ReadInode"); Context carries
// a short human description; Err, if present, is the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Context == "" && e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Context)
	}
	if e.Context == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Context, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, kind.New(kind.CorruptMetadata, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error. Use Wrap instead when an underlying cause exists.
func New(k Kind, op, context string) *Error {
	return &Error{Kind: k, Op: op, Context: context}
}

// Wrap constructs an *Error carrying an underlying cause.
func Wrap(k Kind, op, context string, err error) *Error {
	return &Error{Kind: k, Op: op, Context: context, Err: err}
}

// Of reports the Kind of err if it is (or wraps) a *Error, and ok=false otherwise.
func Of(err error) (k Kind, ok bool) {
	var e *Error
	for err != nil {
		if ke, isKind := err.(*Error); isKind {
			e = ke
			break
		}
		u, isUnwrap := err.(interface{ Unwrap() error })
		if !isUnwrap {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}
