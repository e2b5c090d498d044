// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package tar

import (
	stdtar "archive/tar"
	"bytes"
	"testing"

	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

func buildTar(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := stdtar.NewWriter(&buf)
	files := []struct {
		name string
		body string
	}{
		{"hello.txt", "hello, world\n"},
		{"dir/nested.txt", "nested content\n"},
	}
	for _, f := range files {
		if err := w.WriteHeader(&stdtar.Header{Name: f.name, Size: int64(len(f.body)), Mode: 0644}); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTarNavigation(t *testing.T) {
	img := buildTar(t)
	src := source.NewBlob("archive.tar", img)

	if !Matches(src) {
		t.Fatal("expected tar to match")
	}

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	root := h.(registry.Listable)

	fh, err := root.Select("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := fh.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, fsrc.Size())
	if _, err := fsrc.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "hello, world\n" {
		t.Fatalf("got %q", buf)
	}

	dh, err := root.Select("dir")
	if err != nil {
		t.Fatal(err)
	}
	nested, err := dh.(registry.Listable).Select("nested.txt")
	if err != nil {
		t.Fatal(err)
	}
	nsrc, err := nested.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	nbuf := make([]byte, nsrc.Size())
	if _, err := nsrc.ReadAt(nbuf, 0); err != nil {
		t.Fatal(err)
	}
	if string(nbuf) != "nested content\n" {
		t.Fatalf("got %q", nbuf)
	}
}
