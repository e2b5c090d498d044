// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package source

import (
	"io"
	"os"

	"github.com/elliotnunn/lazysrc/kind"
)

// File wraps an OS file handle as a Source. Size is determined once, at
// construction, by seeking to the end (spec.md §4.1). Reads are absolute-
// position reads; on platforms with a pread syscall (see pread_unix.go) those
// go straight to the kernel without disturbing any shared file offset, which
// is what lets a single *os.File be safely shared across many independent
// Source trees without external serialization.
type File struct {
	label string
	f     *os.File
	size  int64
}

// NewFile wraps f as a Source. f's size is determined immediately.
func NewFile(label string, f *os.File) (*File, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, kind.Wrap(kind.IoFailure, "source.NewFile", label, err)
	}
	return &File{label: label, f: f, size: size}, nil
}

// OpenFile opens path read-only and wraps it as a Source.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kind.Wrap(kind.IoFailure, "source.OpenFile", path, err)
	}
	return NewFile(path, f)
}

func (s *File) Size() int64   { return s.size }
func (s *File) Label() string { return s.label }

func (s *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, kind.New(kind.InvalidArgument, "File.ReadAt", "negative offset")
	}
	if off >= s.size {
		return 0, nil
	}
	if max := s.size - off; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := preadAt(s.f, p, off)
	if err != nil {
		return n, kind.Wrap(kind.IoFailure, "File.ReadAt", s.label, err)
	}
	return n, nil
}

// Close releases the underlying OS handle.
func (s *File) Close() error { return s.f.Close() }
