// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package apm decodes the classic Apple Partition Map (spec.md §6's "simpler
// partition tables"), adapted from the teacher's internal/apm: a driver
// descriptor block ("ER"), a run of 512-byte ("PM") map entries each naming
// a (start, length, type) partition, in the same shape mbr and cdfs share.
package apm

import (
	"cmp"
	"encoding/binary"
	"slices"
	"strconv"
	"strings"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

const ddmSize = 514

// Matches probes for the "ER" driver descriptor block signature.
func Matches(src source.Source) bool {
	var ddm [ddmSize]byte
	n, err := src.ReadAt(ddm[:], 0)
	if err != nil || n < ddmSize {
		return false
	}
	return ddm[0] == 'E' && ddm[1] == 'R'
}

type entry struct {
	name        string
	start, size int64
}

// Handler is the recognised registry.Handler for an Apple Partition Map.
type Handler struct {
	src     source.Source
	entries []entry
}

// New decodes src's partition map. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	var ddm [ddmSize]byte
	if _, err := src.ReadAt(ddm[:], 0); err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "apm.New", "reading driver descriptor block", err)
	}
	sbBlkSize := int64(binary.BigEndian.Uint16(ddm[2:]))

	// Some CDs carried "shadow maps" for ROMs that assumed 512-byte
	// sectors even over a 2048-byte-sector CD.
	mapEntryStep := sbBlkSize
	var shadowProbe [2]byte
	if n, err := src.ReadAt(shadowProbe[:], 512); err == nil && n == 2 && shadowProbe[0] == 'P' && shadowProbe[1] == 'M' {
		mapEntryStep = 512
	}

	var first [8]byte
	n, err := src.ReadAt(first[:], mapEntryStep)
	if err != nil || n < 8 || first[0] != 'P' || first[1] != 'M' {
		return nil, kind.New(kind.CorruptMetadata, "apm.New", "missing first partition map entry")
	}
	count := int64(binary.BigEndian.Uint32(first[4:8]))

	raw := make([]byte, count*mapEntryStep)
	if n, err := src.ReadAt(raw, mapEntryStep); err != nil || int64(n) != int64(len(raw)) {
		return nil, kind.New(kind.TruncatedSource, "apm.New", "partition map table")
	}

	type rawEntry struct {
		start int64
		data  []byte
	}
	var rawEntries []rawEntry
	for i := int64(0); i < count; i++ {
		ent := raw[i*mapEntryStep:][:512]
		if ent[0] != 'P' || ent[1] != 'M' {
			return nil, kind.New(kind.CorruptMetadata, "apm.New", "corrupt partition map entry")
		}
		rawEntries = append(rawEntries, rawEntry{start: int64(binary.BigEndian.Uint32(ent[8:])), data: ent})
	}
	slices.SortStableFunc(rawEntries, func(a, b rawEntry) int { return cmp.Compare(a.start, b.start) })

	ofEach := make(map[string]int)
	var entries []entry
	for _, re := range rawEntries {
		ent := re.data
		pyPartStart := int64(binary.BigEndian.Uint32(ent[8:]))
		partBlkCnt := int64(binary.BigEndian.Uint32(ent[12:]))
		parType, _, _ := strings.Cut(string(ent[48:80]), "\x00")

		if parType == "Apple_Free" {
			continue
		}

		name := strings.ToLower(strings.TrimPrefix(parType, "Apple_"))
		ofEach[name]++
		name += "-" + strconv.Itoa(ofEach[name])

		entries = append(entries, entry{
			name:  name,
			start: mapEntryStep * pyPartStart,
			size:  mapEntryStep * partBlkCnt,
		})
	}

	return &Handler{src: src, entries: entries}, nil
}

func (h *Handler) Name() string { return "apm" }

func (h *Handler) List() ([]registry.Child, error) {
	out := make([]registry.Child, len(h.entries))
	for i, e := range h.entries {
		out[i] = registry.Child{Name: e.name, Kind: registry.KindOther}
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	for _, e := range h.entries {
		if e.name != name {
			continue
		}
		return &partitionHandler{source.NewWindow(h.src, e.start, e.size, name)}, nil
	}
	return nil, kind.New(kind.InvalidArgument, "apm.Select", "no such partition: "+name)
}

type partitionHandler struct{ src source.Source }

func (p *partitionHandler) Name() string                   { return "apm-partition" }
func (p *partitionHandler) Source() (source.Source, error) { return p.src, nil }
