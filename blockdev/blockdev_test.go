// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package blockdev

import (
	"bytes"
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

func TestFileDeviceBlocksAndConcat(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	blob := source.NewBlob("t", data)
	dev := NewFileDevice(blob, 4)

	if dev.BlockSize() != 4 || dev.Size() != 10 {
		t.Fatalf("dev stats wrong")
	}

	last, err := dev.GetBlock(2)
	if err != nil {
		t.Fatal(err)
	}
	if last.Size() != 2 {
		t.Fatalf("last block size = %d, want 2", last.Size())
	}

	bs := AsSource(dev, "t")
	out := make([]byte, 10)
	n, err := bs.ReadAt(out, 0)
	if err != nil || n != 10 || !bytes.Equal(out, data) {
		t.Fatalf("got %v (%d), %v", out[:n], n, err)
	}
}

func TestFileDeviceStraddlingRead(t *testing.T) {
	data := []byte("0123456789abcdef")
	dev := NewFileDevice(source.NewBlob("t", data), 4)
	bs := AsSource(dev, "t")

	out := make([]byte, 6)
	n, err := bs.ReadAt(out, 3)
	if err != nil || n != 6 || string(out[:n]) != "345678" {
		t.Fatalf("got %q (%d), %v", out[:n], n, err)
	}
}

func TestLRUEviction(t *testing.T) {
	l := NewLRU(2)
	l.Put(0, []byte("a"))
	l.Put(1, []byte("b"))
	l.Put(2, []byte("c")) // evicts 0

	if _, ok := l.Get(0); ok {
		t.Fatal("block 0 should have been evicted")
	}
	if v, ok := l.Get(1); !ok || string(v) != "b" {
		t.Fatal("block 1 should still be cached")
	}
	if v, ok := l.Get(2); !ok || string(v) != "c" {
		t.Fatal("block 2 should be cached")
	}
}
