// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"github.com/elliotnunn/lazysrc/blockdev"
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// Handler is the recognised registry.Handler for a UDIF image: Listable, one
// child per decoded partition.
type Handler struct {
	disk       source.Source
	partitions []partition
}

func (h *Handler) Name() string { return "dmg" }

// New decodes src's koly trailer, property list, and partition block
// tables. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	t, err := readTrailer(src)
	if err != nil {
		return nil, err
	}

	xmlWin := source.NewWindow(src, int64(t.xmlOffset), int64(t.xmlLength), "dmg-plist")
	xmlBuf := make([]byte, xmlWin.Size())
	if _, err := xmlWin.ReadAt(xmlBuf, 0); err != nil {
		return nil, kind.Wrap(kind.IoFailure, "dmg.New", "reading property list", err)
	}

	root, err := parsePlist(xmlBuf)
	if err != nil {
		return nil, err
	}

	partitions, err := partitionsFromPlist(root)
	if err != nil {
		return nil, err
	}

	return &Handler{disk: src, partitions: partitions}, nil
}

func (h *Handler) List() ([]registry.Child, error) {
	out := make([]registry.Child, len(h.partitions))
	for i, p := range h.partitions {
		name := p.name
		if name == "" {
			name = p.id
		}
		out[i] = registry.Child{Name: name, Kind: registry.KindOther}
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	for _, p := range h.partitions {
		label := p.name
		if label == "" {
			label = p.id
		}
		if label != name {
			continue
		}
		runs, err := p.buildRuns(h.disk)
		if err != nil {
			return nil, err
		}
		dev := newRunDevice(runs, p.sectorCount())
		return &partitionHandler{blockdev.AsSource(dev, "dmg-partition-"+name)}, nil
	}
	return nil, kind.New(kind.InvalidArgument, "dmg.Select", "no such partition: "+name)
}

type partitionHandler struct{ src source.Source }

func (p *partitionHandler) Name() string                    { return "dmg-partition" }
func (p *partitionHandler) Source() (source.Source, error) { return p.src, nil }

// Matches probes for the koly signature in the trailer.
func Matches(src source.Source) bool {
	size := src.Size()
	if size < trailerSize {
		return false
	}
	c := cursor.New(source.NewWindow(src, size-trailerSize, trailerSize, "koly-probe"))
	sig, err := c.ReadExact(4)
	if err != nil {
		return false
	}
	return string(sig) == "koly"
}
