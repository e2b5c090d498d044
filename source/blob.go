// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package source

import "github.com/elliotnunn/lazysrc/kind"

// Blob is a Source backed by an immutable in-memory byte buffer.
type Blob struct {
	label string
	data  []byte
}

// NewBlob wraps buf (not copied) as a Source. Callers must not mutate buf afterward.
func NewBlob(label string, buf []byte) *Blob {
	return &Blob{label: label, data: buf}
}

func (b *Blob) Size() int64   { return int64(len(b.data)) }
func (b *Blob) Label() string { return b.label }

func (b *Blob) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, kind.New(kind.InvalidArgument, "Blob.ReadAt", "negative offset")
	}
	if off >= int64(len(b.data)) {
		return 0, nil
	}
	n := copy(p, b.data[off:])
	return n, nil
}
