// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package qcow2 decodes a QEMU Copy-On-Write v2 disk image (spec.md §4.5):
// header, two-level cluster table, and an optional backing file chain. Only
// version 2 is accepted; encryption and compressed clusters are rejected as
// UnsupportedFormatFeature.
//
// Field layout is cross-checked against the zero-dependency reference
// decoders retrieved alongside this module (zchee/go-qcow2,
// sswastik02/go-qcow2lib); this package's library choices (the blockdev LRU,
// cursor primitives) come from this repository's own stack, not from those
// two repos.
package qcow2

import (
	"os"

	"github.com/elliotnunn/lazysrc/blockdev"
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
	"github.com/pkg/errors"
)

const magic = "QFI\xfb"

// Matches probes for the QFI\xfb magic at offset 0.
func Matches(src source.Source) bool {
	var head [4]byte
	n, err := src.ReadAt(head[:], 0)
	if err != nil || n != 4 {
		return false
	}
	return string(head[:]) == magic
}

type header struct {
	version           uint32
	backingFileOffset uint64
	backingFileSize   uint32
	clusterBits       uint32
	size              uint64
	cryptMethod       uint32
	l1Size            uint32
	l1TableOffset     uint64
}

func readHeader(src source.Source) (*header, error) {
	c := cursor.New(src)
	if err := c.Seek(4); err != nil {
		return nil, err
	}
	var h header
	var err error
	if h.version, err = c.U32BE(); err != nil {
		return nil, err
	}
	if h.backingFileOffset, err = c.U64BE(); err != nil {
		return nil, err
	}
	if h.backingFileSize, err = c.U32BE(); err != nil {
		return nil, err
	}
	if h.clusterBits, err = c.U32BE(); err != nil {
		return nil, err
	}
	if h.size, err = c.U64BE(); err != nil {
		return nil, err
	}
	if h.cryptMethod, err = c.U32BE(); err != nil {
		return nil, err
	}
	if h.l1Size, err = c.U32BE(); err != nil {
		return nil, err
	}
	if h.l1TableOffset, err = c.U64BE(); err != nil {
		return nil, err
	}

	if h.version != 2 {
		return nil, kind.New(kind.UnsupportedFormatFeature, "qcow2.readHeader", "only version 2 is supported")
	}
	if h.cryptMethod != 0 {
		return nil, kind.New(kind.UnsupportedFormatFeature, "qcow2.readHeader", "encrypted images are not supported")
	}
	return &h, nil
}

// Resolver opens and recognises a backing file, matching spec.md §4.5's
// requirement to recursively recognise the backing path and, if the result
// is listable, descend into its first option. formats.NewRegistry wires
// this to the shared registry.Registry's own Recognise method, so a
// backing file is tried against the same set of formats as everything
// else; it is nil for a standalone qcow2.New call, which then uses the raw
// backing file verbatim.
type Resolver func(src source.Source) (registry.Handler, error)

// Handler is the recognised registry.Handler for a qcow2 image: Sourceable,
// yielding the decoded virtual disk as a flat byte source.
type Handler struct {
	src source.Source
}

func (h *Handler) Name() string                    { return "qcow2" }
func (h *Handler) Source() (source.Source, error) { return h.src, nil }

// New decodes src as a qcow2 image. resolve, if non-nil, is used to open and
// recognise a declared backing file.
func New(src source.Source, resolve Resolver) (registry.Handler, error) {
	h, err := readHeader(src)
	if err != nil {
		return nil, err
	}

	var backing source.Source
	if h.backingFileOffset != 0 && h.backingFileSize != 0 {
		nameBuf := make([]byte, h.backingFileSize)
		if _, err := src.ReadAt(nameBuf, int64(h.backingFileOffset)); err != nil {
			return nil, kind.Wrap(kind.IoFailure, "qcow2.New", "reading backing file path", err)
		}
		path := string(nameBuf)

		f, err := os.Open(path)
		if err != nil {
			return nil, kind.Wrap(kind.IoFailure, "qcow2.New", "opening backing file "+path, err)
		}
		rawBacking, err := source.NewFile(path, f)
		if err != nil {
			return nil, err
		}

		backing = rawBacking
		if resolve != nil {
			bh, err := resolve(rawBacking)
			if err == nil && bh != nil {
				if listable, ok := bh.(registry.Listable); ok {
					children, lerr := listable.List()
					if lerr == nil && len(children) > 0 {
						if sel, serr := listable.Select(children[0].Name); serr == nil {
							bh = sel
						}
					}
				}
				if sourceable, ok := bh.(registry.Sourceable); ok {
					if s, serr := sourceable.Source(); serr == nil {
						backing = s
					}
				}
			}
		}
	}

	dev, err := newDevice(src, h, backing)
	if err != nil {
		return nil, errors.Wrap(err, "qcow2: constructing cluster-table device")
	}

	return &Handler{src: blockdev.AsSource(dev, src.Label()+"#qcow2")}, nil
}
