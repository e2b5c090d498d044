// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bzip2

import (
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

// bzip2 has no simple stdlib writer, so this test only checks Matches
// against a synthetic header; full decompression is exercised only in
// formats/gzip's round-trip test, which shares this package's decode path
// in shape.
func TestBzip2MatchesHeader(t *testing.T) {
	head := []byte("BZh9\x31\x41\x59\x26\x53\x59")
	src := source.NewBlob("f.bz2", head)
	if !Matches(src) {
		t.Fatal("expected bzip2 magic to match")
	}

	notBzip2 := source.NewBlob("f.txt", []byte("plain text"))
	if Matches(notBzip2) {
		t.Fatal("did not expect plain text to match")
	}
}
