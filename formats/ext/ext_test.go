// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"encoding/binary"
	"testing"

	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

const testBlockSize = 1024

func putU16(img []byte, off int, v uint16) { binary.LittleEndian.PutUint16(img[off:], v) }
func putU32(img []byte, off int, v uint32) { binary.LittleEndian.PutUint32(img[off:], v) }

// writeSuperblock fills in the GOOD_OLD_REV superblock fields this decoder
// reads, at absolute offset 1024.
func writeSuperblock(img []byte, inodesCount, blocksCount, inodesPerGroup, blocksPerGroup uint32) {
	const base = superblockOffset
	putU32(img, base+0, inodesCount)
	putU32(img, base+4, blocksCount)
	putU32(img, base+20, 1) // first_data_block
	putU32(img, base+24, 0) // log_block_size -> 1024-byte blocks
	putU32(img, base+32, blocksPerGroup)
	putU32(img, base+40, inodesPerGroup)
	putU16(img, base+56, superblockMagic)
	putU32(img, base+76, goodOldRev) // rev_level
}

// writeGroupDescriptor fills in the one field this decoder reads from the
// descriptor for group 0, at the group descriptor table's base offset.
func writeGroupDescriptor(img []byte, tableOffset int64, inodeTableLo uint32) {
	putU32(img, int(tableOffset)+8, inodeTableLo)
}

// writeInode fills a 128-byte GOOD_OLD_REV inode descriptor at the given
// absolute offset.
func writeInode(img []byte, off int, mode uint16, sizeLo, flags uint32, blockMap []byte) {
	putU16(img, off+0, mode)
	putU32(img, off+4, sizeLo)
	putU32(img, off+32, flags)
	copy(img[off+40:off+100], blockMap)
}

// extentBlockMap builds a depth-0, single-extent block_map: one leaf extent
// covering logical block 0 at the given raw physical block.
func extentBlockMap(physicalBlock uint32) []byte {
	b := make([]byte, 60)
	putU16(b, 0, extentHeaderMagic)
	putU16(b, 2, 1) // entries
	putU16(b, 4, 4) // max
	putU16(b, 6, 0) // depth
	// one extent record at offset 12
	putU32(b, 12, 0)             // logical_block
	putU16(b, 16, 1)              // len
	putU16(b, 18, 0)              // start_hi
	putU32(b, 20, physicalBlock) // start_lo
	return b
}

// directBlockMap builds a block_map using only direct pointers (no
// extents_fl), with block as the pointer for logical block 0.
func directBlockMap(block uint32) []byte {
	b := make([]byte, 60)
	putU32(b, 0, block)
	return b
}

func writeDirEntry(img []byte, off int, inode uint32, recLen uint16, fileType uint8, name string) int {
	putU32(img, off, inode)
	putU16(img, off+4, recLen)
	img[off+6] = byte(len(name))
	img[off+7] = fileType
	copy(img[off+8:], name)
	return off + int(recLen)
}

// buildExtentImage lays out: superblock, group descriptor, a 2-block inode
// table (root=inode 2, file=inode 12), a root directory block, and a data
// block holding "hello, world\n" addressed through a depth-0 extent.
func buildExtentImage(t *testing.T) []byte {
	t.Helper()
	img := make([]byte, 7*testBlockSize)

	writeSuperblock(img, 16, 7, 16, 8192)
	writeGroupDescriptor(img, 2*testBlockSize, 3) // inode table starts at block 3

	rootOff := 3*testBlockSize + 1*128 // inode 2 -> index 1
	fileOff := 3*testBlockSize + 11*128 // inode 12 -> index 11

	writeInode(img, rootOff, modeDir|0755, testBlockSize, extentsFl, extentBlockMap(5))
	writeInode(img, fileOff, modeReg|0644, 13, extentsFl, extentBlockMap(6))

	dirBase := 5 * testBlockSize
	p := dirBase
	p = writeDirEntry(img, p, 2, 9, fileTypeDirectory, ".")
	p = writeDirEntry(img, p, 2, 10, fileTypeDirectory, "..")
	writeDirEntry(img, p, 12, 17, fileTypeRegular, "hello.txt")

	copy(img[6*testBlockSize:], []byte("hello, world\n"))

	return img
}

func TestExtFileRead(t *testing.T) {
	img := buildExtentImage(t)
	src := source.NewBlob("ext.img", img)

	if !Matches(src) {
		t.Fatal("expected ext magic to match")
	}

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}

	root := h.(registry.Listable)
	children, err := root.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].Name != "hello.txt" {
		t.Fatalf("unexpected listing: %v", children)
	}
	if children[0].Kind != registry.KindFile {
		t.Fatalf("expected hello.txt to be a regular file, got %v", children[0].Kind)
	}

	fileHandle, err := root.Select("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := fileHandle.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	if fsrc.Size() != 13 {
		t.Fatalf("expected size 13, got %d", fsrc.Size())
	}

	buf := make([]byte, 13)
	n, err := fsrc.ReadAt(buf, 0)
	if err != nil || n != 13 || string(buf) != "hello, world\n" {
		t.Fatalf("n=%d err=%v buf=%q", n, err, buf)
	}
}

// buildIndirectImage is like buildExtentImage but the file inode maps its
// single block through a direct block_map pointer instead of an extent.
func buildIndirectImage(t *testing.T) []byte {
	t.Helper()
	img := make([]byte, 7*testBlockSize)

	writeSuperblock(img, 16, 7, 16, 8192)
	writeGroupDescriptor(img, 2*testBlockSize, 3)

	rootOff := 3*testBlockSize + 1*128
	fileOff := 3*testBlockSize + 11*128

	writeInode(img, rootOff, modeDir|0755, testBlockSize, extentsFl, extentBlockMap(5))
	writeInode(img, fileOff, modeReg|0644, 13, 0, directBlockMap(6))

	dirBase := 5 * testBlockSize
	p := dirBase
	p = writeDirEntry(img, p, 2, 9, fileTypeDirectory, ".")
	p = writeDirEntry(img, p, 2, 10, fileTypeDirectory, "..")
	writeDirEntry(img, p, 12, 17, fileTypeRegular, "hello.txt")

	copy(img[6*testBlockSize:], []byte("hello, world\n"))

	return img
}

func TestExtDirectBlockPointer(t *testing.T) {
	img := buildIndirectImage(t)
	src := source.NewBlob("ext.img", img)

	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	root := h.(registry.Listable)
	fileHandle, err := root.Select("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := fileHandle.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 13)
	n, err := fsrc.ReadAt(buf, 0)
	if err != nil || n != 13 || string(buf) != "hello, world\n" {
		t.Fatalf("n=%d err=%v buf=%q", n, err, buf)
	}
}

func TestExtFeatureAttributes(t *testing.T) {
	img := buildExtentImage(t)
	src := source.NewBlob("ext.img", img)
	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	feats := h.(*Handler).FeatureAttributes()
	incompat := feats.GetAttributes("incompat")
	if incompat == nil {
		t.Fatal("expected an incompat bundle")
	}
	// This image uses rev_level 0 (GOOD_OLD_REV), so no feature words were
	// ever read; every bundle should be empty.
	if incompat.Len() != 0 {
		t.Fatalf("expected no incompat features decoded for a GOOD_OLD_REV image, got %v", incompat.Keys())
	}
}

func TestExtUnsupportedIndirectBlock(t *testing.T) {
	img := make([]byte, 7*testBlockSize)
	writeSuperblock(img, 16, 7, 16, 8192)
	writeGroupDescriptor(img, 2*testBlockSize, 3)
	rootOff := 3*testBlockSize + 1*128
	fileOff := 3*testBlockSize + 11*128
	writeInode(img, rootOff, modeDir|0755, testBlockSize, extentsFl, extentBlockMap(5))
	// A 12-block file with no extents_fl: block 11 falls past the direct
	// pointer range and must be rejected as unsupported.
	writeInode(img, fileOff, modeReg|0644, uint32(12*testBlockSize), 0, directBlockMap(6))
	dirBase := 5 * testBlockSize
	p := dirBase
	p = writeDirEntry(img, p, 2, 9, fileTypeDirectory, ".")
	p = writeDirEntry(img, p, 2, 10, fileTypeDirectory, "..")
	writeDirEntry(img, p, 12, 17, fileTypeRegular, "hello.txt")

	src := source.NewBlob("ext.img", img)
	h, err := New(src)
	if err != nil {
		t.Fatal(err)
	}
	root := h.(registry.Listable)
	fileHandle, err := root.Select("hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fsrc, err := fileHandle.(registry.Sourceable).Source()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, testBlockSize)
	if _, err := fsrc.ReadAt(buf, 11*testBlockSize); err == nil {
		t.Fatal("expected an UnsupportedFormatFeature error reading block 11")
	}
}
