// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package source

import "github.com/elliotnunn/lazysrc/kind"

// Window is a bounded view (parent, offset, size) over another Source.
//
// Window clamps every read to its own logical size, so a read through it
// never reaches parent bytes outside [offset, offset+size). Any operation that crosses a trust boundary (a cursor.Sub call, a format
// handler exposing a child region of its backing source) must interpose a
// Window rather than return the parent Source directly.
type Window struct {
	parent      Source
	offset, sz  int64
	label       string
}

// NewWindow returns a Window of sz bytes starting at offset within parent.
// sz is not validated against parent's size here — reads are clamped lazily,
// matching spec.md's "request whose range exceeds size is clamped".
func NewWindow(parent Source, offset, sz int64, label string) *Window {
	return &Window{parent: parent, offset: offset, sz: sz, label: label}
}

func (w *Window) Size() int64 { return w.sz }
func (w *Window) Label() string {
	if w.label != "" {
		return w.label
	}
	return "window"
}

func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, kind.New(kind.InvalidArgument, "Window.ReadAt", "negative offset")
	}
	if off >= w.sz {
		return 0, nil
	}
	if max := w.sz - off; int64(len(p)) > max {
		p = p[:max]
	}
	return w.parent.ReadAt(p, w.offset+off)
}
