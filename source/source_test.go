// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package source

import "testing"

func TestBlobEcho(t *testing.T) {
	b := NewBlob("t", []byte("hello"))

	p := make([]byte, 3)
	n, err := b.ReadAt(p, 0)
	if err != nil || string(p[:n]) != "hel" {
		t.Fatalf("got %q, %v", p[:n], err)
	}

	p = make([]byte, 10)
	n, err = b.ReadAt(p, 3)
	if err != nil || string(p[:n]) != "lo" {
		t.Fatalf("got %q, %v", p[:n], err)
	}

	p = make([]byte, 1)
	n, err = b.ReadAt(p, 5)
	if err != nil || n != 0 {
		t.Fatalf("got n=%d, %v", n, err)
	}
}

func TestWindowedSlice(t *testing.T) {
	b := NewBlob("t", []byte("0123456789"))
	w := NewWindow(b, 3, 4, "w")

	if w.Size() != 4 {
		t.Fatalf("size = %d", w.Size())
	}

	p := make([]byte, 100)
	n, _ := w.ReadAt(p, 0)
	if string(p[:n]) != "3456" {
		t.Fatalf("got %q", p[:n])
	}

	n, _ = w.ReadAt(p, 2)
	if string(p[:n]) != "56" {
		t.Fatalf("got %q", p[:n])
	}

	p = make([]byte, 1)
	n, _ = w.ReadAt(p, 4)
	if n != 0 {
		t.Fatalf("got n=%d", n)
	}
}

func TestZeroSource(t *testing.T) {
	z := NewZero(16)
	p := make([]byte, 32)
	for i := range p {
		p[i] = 0xff
	}
	n, _ := z.ReadAt(p, 4)
	if n != 12 {
		t.Fatalf("n = %d", n)
	}
	for _, b := range p[:n] {
		if b != 0 {
			t.Fatalf("non-zero byte in zero source")
		}
	}
}

func TestReadAtOrPastSizeYieldsNothing(t *testing.T) {
	for _, s := range []Source{
		NewBlob("b", []byte("abc")),
		NewZero(3),
		NewWindow(NewBlob("b", []byte("abcdef")), 1, 3, "w"),
	} {
		p := make([]byte, 5)
		n, err := s.ReadAt(p, s.Size())
		if err != nil || n != 0 {
			t.Fatalf("%s: read at size: n=%d err=%v", s.Label(), n, err)
		}
		n, err = s.ReadAt(p, s.Size()+100)
		if err != nil || n != 0 {
			t.Fatalf("%s: read past size: n=%d err=%v", s.Label(), n, err)
		}
	}
}

func TestNegativeOffsetRejected(t *testing.T) {
	s := NewBlob("b", []byte("abc"))
	_, err := s.ReadAt(make([]byte, 1), -1)
	if err == nil {
		t.Fatal("expected error for negative offset")
	}
}
