// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zip

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

func buildArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("dir/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("hello, world\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestZipNavigation(t *testing.T) {
	img := buildArchive(t)
	src := source.NewBlob("archive", img)

	if !Matches(src) {
		t.Fatal("expected zip match")
	}

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	root := h.(*Handler)

	children, err := root.List()
	if err != nil || len(children) != 1 || children[0].Name != "dir" {
		t.Fatalf("list = %v, %v", children, err)
	}

	dirH, err := root.Select("dir")
	if err != nil {
		t.Fatal(err)
	}
	dir := dirH.(*Handler)

	children, err = dir.List()
	if err != nil || len(children) != 1 || children[0].Name != "hello.txt" {
		t.Fatalf("list = %v, %v", children, err)
	}

	fileH, err := dir.Select("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := fileH.(*fileHandler).Source()
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, fsrc.Size())
	if _, err := fsrc.ReadAt(got, 0); err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello, world\n" {
		t.Fatalf("file contents = %q", got)
	}
}

func TestZipMatchesRejectsNonZip(t *testing.T) {
	src := source.NewBlob("not-a-zip", bytes.Repeat([]byte{0}, 64))
	if Matches(src) {
		t.Fatal("expected non-match on a zero-filled blob")
	}
}
