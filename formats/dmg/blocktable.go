// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// Run entry-type values, spec.md §4.6.
const (
	runZero1       = 0x00000000
	runUncompressed = 0x00000001
	runZero2       = 0x00000002
	runUDCO        = 0x80000004
	runUDZO        = 0x80000005
	runUDBZ        = 0x80000006
	runTerminator  = 0xFFFFFFFF
)

// chunkEntry is one decoded run descriptor from a block table.
type chunkEntry struct {
	entryType               uint32
	sectorNumber, sectorCount uint64
	compressedOffset, compressedLength uint64
}

// parseBlockTable decodes a per-partition block table (the "blkx" Data
// payload) into its chunk entries, stopping at the 0xFFFFFFFF terminator
// and skipping zero-sector-count entries (spec.md §8 boundary behavior).
func parseBlockTable(data []byte) ([]chunkEntry, error) {
	c := cursor.New(source.NewBlob("blkx", data))

	if _, err := c.U32BE(); err != nil { // signature
		return nil, err
	}
	if _, err := c.U32BE(); err != nil { // version
		return nil, err
	}
	if _, err := c.U64BE(); err != nil { // sector_number
		return nil, err
	}
	if _, err := c.U64BE(); err != nil { // sector_count
		return nil, err
	}
	if _, err := c.U64BE(); err != nil { // data_offset
		return nil, err
	}
	if _, err := c.U32BE(); err != nil { // buffers_needed
		return nil, err
	}
	if _, err := c.U32BE(); err != nil { // block_descriptors
		return nil, err
	}
	if err := c.Skip(6 * 4); err != nil { // reserved
		return nil, err
	}
	if err := c.Skip(4 + 4 + 32*4); err != nil { // checksum triple
		return nil, err
	}
	numChunks, err := c.U32BE()
	if err != nil {
		return nil, err
	}

	var out []chunkEntry
	for i := uint32(0); i < numChunks; i++ {
		entryType, err := c.U32BE()
		if err != nil {
			return nil, kind.Wrap(kind.CorruptMetadata, "dmg.parseBlockTable", "truncated chunk entry", err)
		}
		if entryType == runTerminator {
			break
		}
		if _, err := c.ReadExact(4); err != nil { // comment
			return nil, err
		}
		sectorNumber, err := c.U64BE()
		if err != nil {
			return nil, err
		}
		sectorCount, err := c.U64BE()
		if err != nil {
			return nil, err
		}
		compressedOffset, err := c.U64BE()
		if err != nil {
			return nil, err
		}
		compressedLength, err := c.U64BE()
		if err != nil {
			return nil, err
		}

		if sectorCount == 0 {
			continue // spec.md §8: zero-count entries are skipped, not instantiated
		}

		out = append(out, chunkEntry{
			entryType:        entryType,
			sectorNumber:     sectorNumber,
			sectorCount:      sectorCount,
			compressedOffset: compressedOffset,
			compressedLength: compressedLength,
		})
	}
	return out, nil
}
