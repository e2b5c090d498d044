// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package cdfs decodes a minimal ISO-9660 (CDFS) primary volume descriptor
// and its root directory (spec.md §6). Like mbr, it is structurally trivial
// next to ext/dmg and is adapted from the teacher's internal/apm partition
// table shape: enumerate fixed-size directory records, each describing an
// (LBA, length) child.
package cdfs

import (
	"strings"

	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

const (
	pvdOffset = 0x8000
)

// Matches probes for "\x01CD001" at the primary volume descriptor offset.
func Matches(src source.Source) bool {
	var head [7]byte
	n, err := src.ReadAt(head[:], pvdOffset)
	if err != nil || n != 7 {
		return false
	}
	return head[0] == 1 && string(head[1:6]) == "CD001"
}

// Handler is the recognised registry.Handler for the root directory of a
// CDFS volume. Navigating into a subdirectory yields another Handler of the
// same type rooted at that directory's extent.
type Handler struct {
	src            source.Source
	logicalBlkSize int64
	extentLBA      uint32
	dataLen        uint32
}

// New decodes the primary volume descriptor and positions at the root
// directory. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	c := cursor.New(src)
	if err := c.Seek(pvdOffset); err != nil {
		return nil, err
	}

	if _, err := c.ReadExact(7); err != nil { // type, "CD001", version
		return nil, kind.Wrap(kind.CorruptMetadata, "cdfs.New", "truncated PVD", err)
	}
	if err := c.Skip(1); err != nil { // unused
		return nil, err
	}
	if _, err := c.ReadExact(32); err != nil { // system identifier
		return nil, err
	}
	if _, err := c.ReadExact(32); err != nil { // volume identifier
		return nil, err
	}
	if err := c.Skip(8); err != nil { // unused
		return nil, err
	}
	if err := c.Skip(8); err != nil { // volume space size (both-endian, 8 bytes)
		return nil, err
	}
	if err := c.Skip(32); err != nil { // unused
		return nil, err
	}
	if err := c.Skip(4); err != nil { // volume set size
		return nil, err
	}
	if err := c.Skip(4); err != nil { // volume sequence number
		return nil, err
	}
	lbsRaw, err := c.ReadExact(4) // logical block size, both-endian
	if err != nil {
		return nil, err
	}
	logicalBlkSize := int64(lbsRaw[0]) | int64(lbsRaw[1])<<8

	if err := c.Skip(8); err != nil { // path table size
		return nil, err
	}
	if err := c.Skip(4 * 4); err != nil { // four path table locations
		return nil, err
	}

	rootRecord, err := c.ReadExact(34) // root directory record
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "cdfs.New", "truncated root directory record", err)
	}
	extentLBA := le32both(rootRecord[2:10])
	dataLen := le32both(rootRecord[10:18])

	return &Handler{src: src, logicalBlkSize: logicalBlkSize, extentLBA: extentLBA, dataLen: dataLen}, nil
}

func le32both(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (h *Handler) Name() string { return "cdfs" }

type dirent struct {
	name      string
	extentLBA uint32
	dataLen   uint32
	isDir     bool
}

// entries walks the directory's single extent, skipping zero-padding at the
// end of a logical block rather than decoding it as a record, per spec.md
// §8 "directory record at end of a logical block may be followed by
// zero-padding".
func (h *Handler) entries() ([]dirent, error) {
	extentOff := int64(h.extentLBA) * h.logicalBlkSize
	win := source.NewWindow(h.src, extentOff, int64(h.dataLen), "cdfs-dir")
	c := cursor.New(win)

	var out []dirent
	for c.Tell() < win.Size() {
		blockStart := (c.Tell() / h.logicalBlkSize) * h.logicalBlkSize
		lenByte, err := c.U8()
		if err != nil {
			return nil, err
		}
		if lenByte == 0 {
			// Zero-padding to end of block; skip to the next block boundary.
			next := blockStart + h.logicalBlkSize
			if next <= c.Tell() {
				break
			}
			if err := c.Seek(next); err != nil {
				return nil, err
			}
			continue
		}

		rest, err := c.ReadExact(int(lenByte) - 1)
		if err != nil {
			return nil, kind.Wrap(kind.CorruptMetadata, "cdfs.entries", "truncated directory record", err)
		}
		rec := append([]byte{lenByte}, rest...)

		extLBA := le32both(rec[2:10])
		dLen := le32both(rec[10:18])
		flags := rec[25]
		nameLen := int(rec[32])
		if 33+nameLen > len(rec) {
			return nil, kind.New(kind.CorruptMetadata, "cdfs.entries", "name exceeds record")
		}
		name := string(rec[33:][:nameLen])
		name, _, _ = strings.Cut(name, ";") // strip version suffix

		if name == "\x00" || name == "\x01" { // "." and ".."
			continue
		}

		out = append(out, dirent{
			name:      name,
			extentLBA: extLBA,
			dataLen:   dLen,
			isDir:     flags&0x02 != 0,
		})
	}
	return out, nil
}

func (h *Handler) List() ([]registry.Child, error) {
	ents, err := h.entries()
	if err != nil {
		return nil, err
	}
	out := make([]registry.Child, len(ents))
	for i, e := range ents {
		k := registry.KindFile
		if e.isDir {
			k = registry.KindDirectory
		}
		out[i] = registry.Child{Name: e.name, Kind: k}
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	ents, err := h.entries()
	if err != nil {
		return nil, err
	}
	for _, e := range ents {
		if e.name != name {
			continue
		}
		if e.isDir {
			return &Handler{src: h.src, logicalBlkSize: h.logicalBlkSize, extentLBA: e.extentLBA, dataLen: e.dataLen}, nil
		}
		off := int64(e.extentLBA) * h.logicalBlkSize
		return &fileHandler{source.NewWindow(h.src, off, int64(e.dataLen), name)}, nil
	}
	return nil, kind.New(kind.InvalidArgument, "cdfs.Select", "no such entry: "+name)
}

type fileHandler struct{ src source.Source }

func (f *fileHandler) Name() string                    { return "cdfs-file" }
func (f *fileHandler) Source() (source.Source, error) { return f.src, nil }
