// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"encoding/binary"

	"github.com/elliotnunn/lazysrc/kind"
)

const extentHeaderMagic = 0xF30A

// directPointerCount is the number of direct block pointers this decoder
// implements out of block_map's 15 u32 slots (spec.md §4.7 "Otherwise
// indirect mapping"); single/double/triple indirect are Non-goals.
const directPointerCount = 11

// mapBlock resolves logical block n of ino to a raw on-disk block number,
// per spec.md §4.7 "Mapping n -> raw_block".
func mapBlock(ino *inode, n uint64) (uint64, error) {
	if ino.flags&inlineDataFl != 0 {
		return 0, kind.New(kind.UnsupportedFormatFeature, "ext.mapBlock", "inline_data_fl is not supported")
	}
	if ino.flags&extentsFl != 0 {
		return mapExtent(ino.blockMap[:], n)
	}
	return mapIndirect(ino.blockMap[:], n)
}

func mapExtent(blockMap []byte, n uint64) (uint64, error) {
	magic := binary.LittleEndian.Uint16(blockMap[0:2])
	if magic != extentHeaderMagic {
		return 0, kind.New(kind.CorruptMetadata, "ext.mapExtent", "bad extent header magic")
	}
	entries := binary.LittleEndian.Uint16(blockMap[2:4])
	depth := binary.LittleEndian.Uint16(blockMap[6:8])
	if depth != 0 {
		return 0, kind.New(kind.UnsupportedFormatFeature, "ext.mapExtent", "extent tree depth > 0 is not supported")
	}

	const headerSize = 12
	const recordSize = 12
	for i := uint16(0); i < entries; i++ {
		rec := blockMap[headerSize+int(i)*recordSize:]
		logicalBlock := uint64(binary.LittleEndian.Uint32(rec[0:4]))
		length := uint64(binary.LittleEndian.Uint16(rec[4:6]))
		startHi := uint64(binary.LittleEndian.Uint16(rec[6:8]))
		startLo := uint64(binary.LittleEndian.Uint32(rec[8:12]))
		physical := startHi<<32 | startLo

		if n >= logicalBlock && n <= logicalBlock+length {
			return physical + (n - logicalBlock), nil
		}
	}
	return 0, kind.New(kind.CorruptMetadata, "ext.mapExtent", "no extent covers the requested block")
}

func mapIndirect(blockMap []byte, n uint64) (uint64, error) {
	if n >= directPointerCount {
		return 0, kind.New(kind.UnsupportedFormatFeature, "ext.mapIndirect", "single/double/triple indirect blocks are not supported")
	}
	raw := binary.LittleEndian.Uint32(blockMap[n*4:])
	if raw == 0 {
		return 0, kind.New(kind.CorruptMetadata, "ext.mapIndirect", "direct pointer is zero for an in-range block")
	}
	return uint64(raw), nil
}
