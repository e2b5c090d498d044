// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

const sectorSize = 512

// run is a contiguous range of sectors within a partition served by one
// encoding (spec.md GLOSSARY "Run (DMG)").
type run struct {
	disk source.Source // the whole DMG file

	startSector, sectorCount uint64
	kind                     uint32
	compressedOffset         uint64
	compressedLength         uint64

	// udzo holds the per-run decoder state; nil for non-UDZO runs.
	udzo *udzoRunState
}

func newRun(disk source.Source, e chunkEntry) (*run, error) {
	r := &run{
		disk:             disk,
		startSector:      e.sectorNumber,
		sectorCount:      e.sectorCount,
		kind:             e.entryType,
		compressedOffset: e.compressedOffset,
		compressedLength: e.compressedLength,
	}
	switch r.kind {
	case runZero1, runZero2, runUncompressed:
		// no extra state
	case runUDZO:
		r.udzo = newUDZORunState(disk, e.compressedOffset, e.compressedLength, e.sectorCount)
	case runUDCO:
		return nil, kind.New(kind.UnsupportedFormatFeature, "dmg.newRun", "UDCO (Apple compression) is not supported")
	case runUDBZ:
		return nil, kind.New(kind.UnsupportedFormatFeature, "dmg.newRun", "UDBZ (bzip2) is not supported")
	default:
		return nil, kind.New(kind.CorruptMetadata, "dmg.newRun", "unknown DMG chunk entry type")
	}
	return r, nil
}

func (r *run) contains(sector uint64) bool {
	return sector >= r.startSector && sector < r.startSector+r.sectorCount
}

// sector returns the 512-byte Source for one sector within the run.
func (r *run) sector(n uint64) (source.Source, error) {
	rel := n - r.startSector
	switch r.kind {
	case runZero1, runZero2:
		return source.ZeroSector(), nil
	case runUncompressed:
		off := int64(r.compressedOffset) + int64(rel)*sectorSize
		return source.NewWindow(r.disk, off, sectorSize, "dmg-uncompressed-sector"), nil
	case runUDZO:
		return r.udzo.sector(rel)
	default:
		return nil, kind.New(kind.UnsupportedFormatFeature, "dmg.run.sector", "unsupported run kind")
	}
}
