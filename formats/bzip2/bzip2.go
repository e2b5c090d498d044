// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bzip2 unwraps a bzip2 stream into the one child source beneath
// it, adapted from the teacher's probe.go bzip2 branch.
package bzip2

import (
	stdbzip2 "compress/bzip2"
	"io"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// Matches probes for the "BZh" + block-size digit + pi-stream magic header.
func Matches(src source.Source) bool {
	var head [10]byte
	n, err := src.ReadAt(head[:], 0)
	if err != nil || n != len(head) {
		return false
	}
	if head[0] != 'B' || head[1] != 'Z' || head[2] != 'h' {
		return false
	}
	if head[3] < '1' || head[3] > '9' {
		return false
	}
	return string(head[4:10]) == "\x31\x41\x59\x26\x53\x59"
}

// Handler exposes the decompressed stream as a single child source.
type Handler struct {
	src source.Source
}

// New wraps src. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	return &Handler{src: src}, nil
}

func (h *Handler) Name() string { return "bzip2" }

func (h *Handler) Source() (source.Source, error) {
	r := stdbzip2.NewReader(io.NewSectionReader(readerAtFunc(h.src.ReadAt), 0, h.src.Size()))
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "bzip2.Source", "decompressing bzip2 stream", err)
	}
	return source.NewBlob(h.src.Label()+":bunzip2", data), nil
}

type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }
