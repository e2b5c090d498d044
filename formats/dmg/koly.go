// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package dmg decodes an Apple Disk Image (UDIF, "koly" trailer): the
// trailer, its embedded Apple-XML property list, per-partition block
// tables, and the three run encodings (zero-fill, uncompressed, and UDZO
// zlib, decoded by sequential replay from the run's start) that spec.md §4.6 calls out as one of
// the two hard parts of this module.
package dmg

import (
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
	"github.com/google/uuid"
)

const trailerSize = 512
const checksumTripleSize = 4 + 4 + 32*4 // type, size, 32 data words

// trailer is the decoded koly block, the last 512 bytes of a UDIF file.
type trailer struct {
	version               uint32
	headerSize            uint32
	flags                 uint32
	runningDataForkOffset uint64
	dataForkOffset        uint64
	dataForkLength        uint64
	resourceForkOffset    uint64
	resourceForkLength    uint64
	segmentNumber         uint32
	segmentCount          uint32
	segmentID             string
	xmlOffset             uint64
	xmlLength             uint64
	imageVariant          uint32
	sectorCount           uint64
}

func readTrailer(src source.Source) (*trailer, error) {
	size := src.Size()
	if size < trailerSize {
		return nil, kind.New(kind.CorruptMetadata, "dmg.readTrailer", "file too short for a koly trailer")
	}

	c := cursor.New(source.NewWindow(src, size-trailerSize, trailerSize, "koly"))

	sig, err := c.ReadExact(4)
	if err != nil || string(sig) != "koly" {
		return nil, kind.New(kind.CorruptMetadata, "dmg.readTrailer", "missing koly signature")
	}

	var t trailer
	if t.version, err = c.U32BE(); err != nil {
		return nil, err
	}
	if t.headerSize, err = c.U32BE(); err != nil {
		return nil, err
	}
	if t.flags, err = c.U32BE(); err != nil {
		return nil, err
	}
	if t.runningDataForkOffset, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.dataForkOffset, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.dataForkLength, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.resourceForkOffset, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.resourceForkLength, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.segmentNumber, err = c.U32BE(); err != nil {
		return nil, err
	}
	if t.segmentCount, err = c.U32BE(); err != nil {
		return nil, err
	}
	segIDBytes, err := c.ReadExact(16)
	if err != nil {
		return nil, err
	}
	if id, uerr := uuid.FromBytes(segIDBytes); uerr == nil {
		t.segmentID = id.String()
	}

	// Data-fork checksum descriptor: type u32, size u32, 32 data u32 words.
	if err := c.Skip(checksumTripleSize); err != nil {
		return nil, err
	}

	if t.xmlOffset, err = c.U64BE(); err != nil {
		return nil, err
	}
	if t.xmlLength, err = c.U64BE(); err != nil {
		return nil, err
	}

	if err := c.Skip(120); err != nil { // reserved
		return nil, err
	}
	if err := c.Skip(checksumTripleSize); err != nil { // the "second" (master) checksum triple
		return nil, err
	}

	if t.imageVariant, err = c.U32BE(); err != nil {
		return nil, err
	}
	if t.sectorCount, err = c.U64BE(); err != nil {
		return nil, err
	}

	return &t, nil
}
