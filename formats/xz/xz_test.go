// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package xz

import (
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

// Building a valid xz stream by hand is impractical; this test only checks
// magic recognition, matching formats/bzip2's test shape.
func TestXzMatchesHeader(t *testing.T) {
	head := []byte("\xfd7zXZ\x00\x00\x00\x00\x00")
	src := source.NewBlob("f.xz", head)
	if !Matches(src) {
		t.Fatal("expected xz magic to match")
	}

	notXz := source.NewBlob("f.txt", []byte("plain text"))
	if Matches(notXz) {
		t.Fatal("did not expect plain text to match")
	}
}
