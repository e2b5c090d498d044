// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package cursor

import (
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

func TestPrimitives(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 'h', 'i', 0, 'x'}
	c := New(source.NewBlob("t", buf))

	v, err := c.U32BE()
	if err != nil || v != 0x01020304 {
		t.Fatalf("U32BE = %#x, %v", v, err)
	}

	s, err := c.NullClippedString(4)
	if err != nil || s != "hi" {
		t.Fatalf("NullClippedString = %q, %v", s, err)
	}

	if c.Tell() != 8 {
		t.Fatalf("tell = %d", c.Tell())
	}
}

func TestSkipBelowZeroRejected(t *testing.T) {
	c := New(source.NewBlob("t", []byte("abc")))
	if err := c.Skip(0); err != nil {
		t.Fatalf("skip 0: %v", err)
	}
	if err := c.Skip(-1); err == nil {
		t.Fatal("expected error skipping below zero")
	}
}

func TestReadExactTruncated(t *testing.T) {
	c := New(source.NewBlob("t", []byte("ab")))
	if _, err := c.ReadExact(5); err == nil {
		t.Fatal("expected truncated error")
	}
}

func TestSubAlwaysWindow(t *testing.T) {
	c := New(source.NewBlob("t", []byte("0123456789")))
	c.Seek(3)
	sub := c.Sub(4)
	if _, ok := sub.(*source.Window); !ok {
		t.Fatalf("Sub did not return a Window: %T", sub)
	}
	if sub.Size() != 4 {
		t.Fatalf("size = %d", sub.Size())
	}
}
