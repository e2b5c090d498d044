// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package apm

import (
	"encoding/binary"
	"testing"

	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

const blockSize = 512

func buildImage() []byte {
	img := make([]byte, blockSize*6)
	img[0], img[1] = 'E', 'R'
	binary.BigEndian.PutUint16(img[2:], blockSize)

	writeEntry := func(n int, count, start, blocks uint32, typ string) {
		off := n * blockSize
		img[off], img[off+1] = 'P', 'M'
		binary.BigEndian.PutUint32(img[off+4:], count)
		binary.BigEndian.PutUint32(img[off+8:], start)
		binary.BigEndian.PutUint32(img[off+12:], blocks)
		copy(img[off+48:], typ)
	}

	writeEntry(1, 2, 1, 1, "Apple_partition_map")
	writeEntry(2, 2, 3, 2, "Apple_HFS")

	return img
}

func TestAPMNavigation(t *testing.T) {
	img := buildImage()
	src := source.NewBlob("disk", img)

	if !Matches(src) {
		t.Fatal("expected APM signature to match")
	}

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	listable := h.(registry.Listable)
	children, err := listable.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 partitions, got %v", children)
	}

	child, err := listable.Select("hfs-1")
	if err != nil {
		t.Fatal(err)
	}
	csrc, err := child.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	if csrc.Size() != 2*blockSize {
		t.Fatalf("expected size %d, got %d", 2*blockSize, csrc.Size())
	}
}
