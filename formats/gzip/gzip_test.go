// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package gzip

import (
	stdgzip "bytes"
	gz "compress/gzip"
	"testing"

	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

func buildGzip(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf stdgzip.Buffer
	w := gz.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGzipDecompresses(t *testing.T) {
	payload := []byte("hello, gzip world\n")
	img := buildGzip(t, payload)
	src := source.NewBlob("f.gz", img)

	if !Matches(src) {
		t.Fatal("expected gzip magic to match")
	}

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	child, err := h.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	if child.Size() != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), child.Size())
	}
	buf := make([]byte, len(payload))
	if _, err := child.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	if string(buf) != string(payload) {
		t.Fatalf("got %q", buf)
	}
}
