// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"testing"

	"github.com/elliotnunn/lazysrc/formats"
	"github.com/elliotnunn/lazysrc/source"
)

// buildGzippedExtSuperblock returns a gzip member whose decompressed bytes
// carry a minimal ext magic at its fixed superblock offset, exercising
// spec.md §4.4's "recognise -> select child -> recognise again" cycle
// across a format boundary end to end through the real registry.
func buildGzippedExtSuperblock(t *testing.T) []byte {
	t.Helper()
	inner := make([]byte, 3072) // superblock (block 1) + group descriptor table (block 2)
	const sb = 1024
	binary.LittleEndian.PutUint32(inner[sb+0:], 16)   // inodes_count
	binary.LittleEndian.PutUint32(inner[sb+4:], 2)    // blocks_count_lo
	binary.LittleEndian.PutUint32(inner[sb+20:], 1)   // first_data_block
	binary.LittleEndian.PutUint32(inner[sb+24:], 0)   // log_block_size -> 1024-byte blocks
	binary.LittleEndian.PutUint32(inner[sb+32:], 8192) // blocks_per_group
	binary.LittleEndian.PutUint32(inner[sb+40:], 16)  // inodes_per_group
	binary.LittleEndian.PutUint16(inner[sb+56:], 0x53EF) // magic
	binary.LittleEndian.PutUint32(inner[sb+76:], 0)   // rev_level = GOOD_OLD_REV

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(inner); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRegistryRecognisesThroughGzip(t *testing.T) {
	outer := buildGzippedExtSuperblock(t)
	src := source.NewBlob("disk.img.gz", outer)

	reg := formats.NewRegistry()
	h, err := reg.Recognise(src)
	if err != nil {
		t.Fatal(err)
	}
	if h == nil || h.Name() != "gzip" {
		t.Fatalf("expected gzip handler, got %v", h)
	}

	inner, err := recogniseThrough(reg, h)
	if err != nil {
		t.Fatal(err)
	}
	if inner.Name() != "ext" {
		t.Fatalf("expected ext handler after decompression, got %s", inner.Name())
	}
}
