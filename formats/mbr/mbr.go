// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package mbr decodes the classic DOS Master Boot Record partition table
// (spec.md §6). Structurally this is the simplest partition-table format in
// the module; it is adapted from the same "table of (start,length,type)
// entries -> child sources" shape as the teacher's internal/apm package,
// which parses Apple's analogous Apple Partition Map.
package mbr

import (
	"fmt"

	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

const (
	tableOffset = 0x1BE
	entrySize   = 16
	numEntries  = 4
	sectorSize  = 512
)

// Matches probes for the 0x55AA signature at offset 0x1FE.
func Matches(src source.Source) bool {
	var sig [2]byte
	n, err := src.ReadAt(sig[:], 0x1FE)
	if err != nil || n != 2 {
		return false
	}
	return sig[0] == 0x55 && sig[1] == 0xAA
}

type entry struct {
	bootable byte
	typ      byte
	relSector, totalSectors uint32
}

// Handler is the recognised registry.Handler for an MBR partition table.
type Handler struct {
	src     source.Source
	entries []entry
}

// New decodes src's partition table. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	c := cursor.New(src)
	if err := c.Seek(tableOffset); err != nil {
		return nil, err
	}

	var entries []entry
	for i := 0; i < numEntries; i++ {
		raw, err := c.ReadExact(entrySize)
		if err != nil {
			return nil, kind.Wrap(kind.CorruptMetadata, "mbr.New", "partition table truncated", err)
		}
		e := entry{
			bootable:      raw[0],
			typ:           raw[4],
			relSector:     le32(raw[8:]),
			totalSectors:  le32(raw[12:]),
		}
		if e.typ == 0 || e.totalSectors == 0 {
			continue
		}
		entries = append(entries, e)
	}

	return &Handler{src: src, entries: entries}, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (h *Handler) Name() string { return "mbr" }

func (h *Handler) List() ([]registry.Child, error) {
	out := make([]registry.Child, len(h.entries))
	for i := range h.entries {
		out[i] = registry.Child{Name: fmt.Sprintf("partition-%d", i+1), Kind: registry.KindOther}
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	for i, e := range h.entries {
		if fmt.Sprintf("partition-%d", i+1) == name {
			off := int64(e.relSector) * sectorSize
			sz := int64(e.totalSectors) * sectorSize
			return &partitionHandler{source.NewWindow(h.src, off, sz, name)}, nil
		}
	}
	return nil, kind.New(kind.InvalidArgument, "mbr.Select", "no such partition: "+name)
}

// partitionHandler is the Sourceable handed back for a selected partition.
type partitionHandler struct {
	src source.Source
}

func (p *partitionHandler) Name() string                    { return "mbr-partition" }
func (p *partitionHandler) Source() (source.Source, error) { return p.src, nil }
