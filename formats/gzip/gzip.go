// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package gzip unwraps a gzip member into the one child source beneath it,
// adapted from the teacher's probe.go gzip branch (spec.md §4's "recognise
// again" cycle: the decompressed child is handed back to the registry for a
// fresh round of matching).
package gzip

import (
	stdgzip "compress/gzip"
	"io"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// Matches probes for the gzip member header.
func Matches(src source.Source) bool {
	var magic [3]byte
	n, err := src.ReadAt(magic[:], 0)
	if err != nil || n != 3 {
		return false
	}
	return magic[0] == 0x1f && magic[1] == 0x8b && magic[2] == 0x08
}

// Handler exposes the decompressed member as a single child source. Unlike
// formats/dmg's UDZO sectors, a gzip member carries no sector index, so
// random access requires decompressing the whole stream; Source does so
// into memory on each call.
type Handler struct {
	src source.Source
}

// New wraps src. It assumes Matches(src) already passed; decompression is
// deferred until Source is called.
func New(src source.Source) (registry.Handler, error) {
	return &Handler{src: src}, nil
}

func (h *Handler) Name() string { return "gzip" }

func (h *Handler) Source() (source.Source, error) {
	r, err := stdgzip.NewReader(io.NewSectionReader(readerAtFunc(h.src.ReadAt), 0, h.src.Size()))
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "gzip.Source", "opening gzip stream", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "gzip.Source", "decompressing gzip stream", err)
	}
	return source.NewBlob(h.src.Label()+":gunzip", data), nil
}

// readerAtFunc adapts a source.Source's ReadAt method for use with
// io.NewSectionReader, matching formats/dmg's udzo.go helper of the same name.
type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }
