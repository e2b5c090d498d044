// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package qcow2

import (
	"encoding/binary"
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

// buildImage lays out: header at 0, L1 table in cluster 1 (one 8-byte entry),
// an L2 table cluster, and one data cluster, with clusterBits=16 (64KiB
// clusters) to keep the math simple while matching real qcow2 defaults.
func buildImage(allocate bool) []byte {
	const clusterBits = 16
	const clusterSize = 1 << clusterBits

	img := make([]byte, 4*clusterSize)
	copy(img[0:], magic)
	binary.BigEndian.PutUint32(img[4:], 2)    // version
	binary.BigEndian.PutUint64(img[8:], 0)    // backing file offset
	binary.BigEndian.PutUint32(img[16:], 0)   // backing file size
	binary.BigEndian.PutUint32(img[20:], clusterBits)
	binary.BigEndian.PutUint64(img[24:], clusterSize*4) // virtual size
	binary.BigEndian.PutUint32(img[32:], 0)             // crypt method
	binary.BigEndian.PutUint32(img[36:], 1)             // L1 size
	binary.BigEndian.PutUint64(img[40:], clusterSize)   // L1 table offset -> cluster 1

	if allocate {
		l2Offset := uint64(clusterSize * 2) // cluster 2 holds L2 table
		binary.BigEndian.PutUint64(img[clusterSize:], l2Offset)

		dataOffset := uint64(clusterSize * 3) // cluster 3 holds data
		binary.BigEndian.PutUint64(img[clusterSize*2:], dataOffset)

		copy(img[clusterSize*3:], []byte("PATTERN-SECTOR-DATA"))
	}

	return img
}

func TestQcow2AllZeroMapping(t *testing.T) {
	img := buildImage(false)
	src := source.NewBlob("disk", img)
	if !Matches(src) {
		t.Fatal("expected qcow2 match")
	}

	h, err := New(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	sourceable := h.(*Handler)
	disk, err := sourceable.Source()
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 512)
	for i := range buf {
		buf[i] = 0xAA
	}
	n, err := disk.ReadAt(buf, 0)
	if err != nil || n != 512 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected all-zero block, got %v", buf)
		}
	}
}

func TestQcow2AllocatedCluster(t *testing.T) {
	img := buildImage(true)
	src := source.NewBlob("disk", img)

	h, err := New(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	disk, _ := h.(*Handler).Source()

	buf := make([]byte, 19)
	n, err := disk.ReadAt(buf, 0)
	if err != nil || string(buf[:n]) != "PATTERN-SECTOR-DATA" {
		t.Fatalf("got %q, err=%v", buf[:n], err)
	}
}
