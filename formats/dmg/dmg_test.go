// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// buildBlockTable encodes one blkx Data payload holding a single chunk
// entry, per the layout parseBlockTable expects.
func buildBlockTable(entryType uint32, sectorNumber, sectorCount, compressedOffset, compressedLength uint64) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.BigEndian, uint32(0x6d697368)) // signature
	binary.Write(buf, binary.BigEndian, uint32(1))          // version
	binary.Write(buf, binary.BigEndian, sectorNumber)
	binary.Write(buf, binary.BigEndian, sectorCount)
	binary.Write(buf, binary.BigEndian, uint64(0)) // data_offset
	binary.Write(buf, binary.BigEndian, uint32(0)) // buffers_needed
	binary.Write(buf, binary.BigEndian, uint32(0)) // block_descriptors
	buf.Write(make([]byte, 6*4))                   // reserved
	buf.Write(make([]byte, 4+4+32*4))              // checksum triple
	binary.Write(buf, binary.BigEndian, uint32(1)) // num_chunks

	binary.Write(buf, binary.BigEndian, entryType)
	buf.Write(make([]byte, 4)) // comment
	binary.Write(buf, binary.BigEndian, sectorNumber)
	binary.Write(buf, binary.BigEndian, sectorCount)
	binary.Write(buf, binary.BigEndian, compressedOffset)
	binary.Write(buf, binary.BigEndian, compressedLength)
	return buf.Bytes()
}

func buildPlist(zeroTable, udzoTable []byte) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
<key>resource_fork</key>
<dict>
<key>blkx</key>
<array>
<dict>
<key>ID</key>
<string>0</string>
<key>Name</key>
<string>zero-partition</string>
<key>Data</key>
<data>%s</data>
</dict>
<dict>
<key>ID</key>
<string>1</string>
<key>Name</key>
<string>udzo-partition</string>
<key>Data</key>
<data>%s</data>
</dict>
</array>
</dict>
</dict>
</plist>
`, base64.StdEncoding.EncodeToString(zeroTable), base64.StdEncoding.EncodeToString(udzoTable))
}

// buildTrailer encodes the 512-byte koly trailer.
func buildTrailer(xmlOffset, xmlLength uint64) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("koly")
	binary.Write(buf, binary.BigEndian, uint32(4))   // version
	binary.Write(buf, binary.BigEndian, uint32(512)) // headerSize
	binary.Write(buf, binary.BigEndian, uint32(0))   // flags
	binary.Write(buf, binary.BigEndian, uint64(0))   // runningDataForkOffset
	binary.Write(buf, binary.BigEndian, uint64(0))   // dataForkOffset
	binary.Write(buf, binary.BigEndian, uint64(0))   // dataForkLength
	binary.Write(buf, binary.BigEndian, uint64(0))   // resourceForkOffset
	binary.Write(buf, binary.BigEndian, uint64(0))   // resourceForkLength
	binary.Write(buf, binary.BigEndian, uint32(1))   // segmentNumber
	binary.Write(buf, binary.BigEndian, uint32(1))   // segmentCount
	buf.Write(make([]byte, 16))                      // segmentID
	buf.Write(make([]byte, checksumTripleSize))       // data-fork checksum
	binary.Write(buf, binary.BigEndian, xmlOffset)
	binary.Write(buf, binary.BigEndian, xmlLength)
	buf.Write(make([]byte, 120))                // reserved
	buf.Write(make([]byte, checksumTripleSize)) // master checksum
	binary.Write(buf, binary.BigEndian, uint32(1)) // imageVariant
	binary.Write(buf, binary.BigEndian, uint64(16)) // sectorCount, informational only

	out := buf.Bytes()
	if len(out) > trailerSize {
		panic("test trailer overflowed 512 bytes")
	}
	padded := make([]byte, trailerSize)
	copy(padded, out)
	return padded
}

// sectorPattern returns a 512-byte pattern that uniquely identifies sector n.
func sectorPattern(n int) []byte {
	return bytes.Repeat([]byte{byte(n)}, sectorSize)
}

// buildDMGImage assembles a full UDIF file: a compressed UDZO payload for
// 16 sectors, an 8-sector zero-fill partition, the embedded plist, and the
// koly trailer.
func buildDMGImage(t *testing.T) []byte {
	t.Helper()

	var plain bytes.Buffer
	for i := 0; i < 16; i++ {
		plain.Write(sectorPattern(i))
	}

	var compressed bytes.Buffer
	w, err := zlib.NewWriterLevel(&compressed, zlib.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(plain.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	zeroTable := buildBlockTable(runZero1, 0, 8, 0, 0)
	udzoTable := buildBlockTable(runUDZO, 0, 16, 0, uint64(compressed.Len()))

	xmlText := buildPlist(zeroTable, udzoTable)

	file := append([]byte{}, compressed.Bytes()...)
	xmlOffset := uint64(len(file))
	file = append(file, []byte(xmlText)...)
	xmlLength := uint64(len(xmlText))

	file = append(file, buildTrailer(xmlOffset, xmlLength)...)
	return file
}

func TestDMGMatchesAndLists(t *testing.T) {
	img := buildDMGImage(t)
	src := source.NewBlob("disk.dmg", img)

	if !Matches(src) {
		t.Fatal("expected koly signature to match")
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
		t.Fatalf("expected 2 partitions, got %d", len(children))
	}
	names := map[string]bool{}
	for _, c := range children {
		names[c.Name] = true
	}
	if !names["zero-partition"] || !names["udzo-partition"] {
		t.Fatalf("unexpected partition names: %v", children)
	}
}

func TestDMGZeroFillRun(t *testing.T) {
	img := buildDMGImage(t)
	src := source.NewBlob("disk.dmg", img)

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	child, err := h.(registry.Listable).Select("zero-partition")
	if err != nil {
		t.Fatal(err)
	}
	disk, err := child.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	n, err := disk.ReadAt(buf, 0)
	if err != nil || n != 4096 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected all-zero partition, got %v", buf)
		}
	}

	n, err = disk.ReadAt(buf, 4096)
	if err != nil || n != 0 {
		t.Fatalf("read past end: n=%d err=%v", n, err)
	}
}

// TestDMGUDZOFreshOpenRandomAccess opens a new Handler for each probe to
// confirm a cold decoder, given a direct request for a non-first sector,
// walks forward from sector 0 and still produces the right plaintext.
func TestDMGUDZOFreshOpenRandomAccess(t *testing.T) {
	img := buildDMGImage(t)

	openPartition := func(t *testing.T) source.Source {
		t.Helper()
		src := source.NewBlob("disk.dmg", img)
		h, err := New(src)
		if err != nil {
			t.Fatal(err)
		}
		child, err := h.(registry.Listable).Select("udzo-partition")
		if err != nil {
			t.Fatal(err)
		}
		disk, err := child.(registry.Sourceable).Source()
		if err != nil {
			t.Fatal(err)
		}
		return disk
	}

	disk := openPartition(t)
	buf := make([]byte, sectorSize)
	n, err := disk.ReadAt(buf, 15*sectorSize)
	if err != nil || n != sectorSize {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf, sectorPattern(15)) {
		t.Fatalf("sector 15 mismatch: got first byte %d", buf[0])
	}

	disk = openPartition(t)
	for i := 0; i < 16; i++ {
		n, err := disk.ReadAt(buf, int64(i)*sectorSize)
		if err != nil || n != sectorSize {
			t.Fatalf("sector %d: n=%d err=%v", i, n, err)
		}
		if !bytes.Equal(buf, sectorPattern(i)) {
			t.Fatalf("sector %d mismatch: got first byte %d", i, buf[0])
		}
	}
}

func TestDMGSelectUnknownPartition(t *testing.T) {
	img := buildDMGImage(t)
	src := source.NewBlob("disk.dmg", img)
	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.(registry.Listable).Select("does-not-exist"); err == nil {
		t.Fatal("expected an error selecting an unknown partition")
	}
}
