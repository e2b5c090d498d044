// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package source defines the read-only random-access byte provider that
// every format handler in this module ultimately reads from or produces.
package source

// Source is a read-only random-access byte provider with a known size.
//
// Implementations must satisfy the clamping contract: a read at an offset
// at or past Size returns zero bytes and no error; a read whose range
// crosses Size is truncated to what remains. Negative offsets are rejected
// with an error. Source is the same shape as io.ReaderAt plus Size/Label,
// but is kept as its own interface (rather than io.ReaderAt) so that the
// clamping contract is part of the type, not a convention callers must
// remember.
type Source interface {
	// Size reports the logical size of the source in bytes.
	Size() int64

	// Label is an opaque identity string used only for diagnostics
	// (error context, cache keys); it carries no semantic meaning.
	Label() string

	// ReadAt reads up to len(p) bytes starting at off. It returns the
	// number of bytes read and a nil error, even at end of source — callers
	// that need a short read to be an error should use cursor.ReadExact.
	ReadAt(p []byte, off int64) (n int, err error)
}
