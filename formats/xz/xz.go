// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package xz unwraps an xz stream into the one child source beneath it,
// adapted from the teacher's probe.go xz branch.
package xz

import (
	"io"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
	"github.com/therootcompany/xz"
)

// Matches probes for the xz stream magic.
func Matches(src source.Source) bool {
	var magic [6]byte
	n, err := src.ReadAt(magic[:], 0)
	if err != nil || n != len(magic) {
		return false
	}
	return string(magic[:]) == "\xfd7zXZ\x00"
}

// Handler exposes the decompressed stream as a single child source.
type Handler struct {
	src source.Source
}

// New wraps src. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	return &Handler{src: src}, nil
}

func (h *Handler) Name() string { return "xz" }

func (h *Handler) Source() (source.Source, error) {
	r, err := xz.NewReader(io.NewSectionReader(readerAtFunc(h.src.ReadAt), 0, h.src.Size()), xz.DefaultDictMax)
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "xz.Source", "opening xz stream", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "xz.Source", "decompressing xz stream", err)
	}
	return source.NewBlob(h.src.Label()+":unxz", data), nil
}

type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }
