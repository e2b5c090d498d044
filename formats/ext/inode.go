// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

const (
	// mode bits 12-15, spec.md §4.7 "bits 12-15 select exactly one of".
	modeTypeMask = 0xF000
	modeFIFO     = 0x1000
	modeChr      = 0x2000
	modeDir      = 0x4000
	modeBlk      = 0x6000
	modeReg      = 0x8000
	modeLnk      = 0xA000
	modeSock     = 0xC000

	extentsFl    = 0x80000
	inlineDataFl = 0x10000000
)

// inode is the subset of a decoded inode descriptor this decoder needs.
type inode struct {
	mode          uint16
	sizeLo        uint32
	flags         uint32
	blockMap      [60]byte
	dirACLOrSizeHi uint32
}

func (i *inode) isDir() bool { return i.mode&modeTypeMask == modeDir }
func (i *inode) isReg() bool { return i.mode&modeTypeMask == modeReg }

// size is size_lo for directories, size_lo|(dir_acl_or_size_hi<<32) for
// regular files (spec.md §4.7 "File size").
func (i *inode) size() int64 {
	if i.isReg() {
		return int64(i.sizeLo) | int64(i.dirACLOrSizeHi)<<32
	}
	return int64(i.sizeLo)
}

// readInode locates and decodes inode number ino (1-based), per spec.md
// §4.7 "Inode lookup by number".
func readInode(src source.Source, sb *superblock, groups []groupDescriptor, ino uint32) (*inode, error) {
	if ino == 0 {
		return nil, kind.New(kind.InvalidArgument, "ext.readInode", "inode 0 is never valid")
	}
	group := (ino - 1) / sb.inodesPerGroup
	index := (ino - 1) % sb.inodesPerGroup
	if int(group) >= len(groups) {
		return nil, kind.New(kind.CorruptMetadata, "ext.readInode", "inode group out of range")
	}
	off := int64(groups[group].inodeTableLo)*sb.blockSize() + int64(index)*int64(sb.inodeSize)

	c := cursor.New(src)
	if err := c.Seek(off); err != nil {
		return nil, err
	}

	var n inode
	var err error
	mode, err := c.U16LE()
	if err != nil {
		return nil, err
	}
	n.mode = mode
	if err := c.Skip(2); err != nil { // uid
		return nil, err
	}
	sizeLo, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	n.sizeLo = sizeLo
	if err := c.Skip(4 + 4 + 4 + 4); err != nil { // atime, ctime, mtime, dtime
		return nil, err
	}
	if err := c.Skip(2 + 2); err != nil { // gid, links_count
		return nil, err
	}
	if err := c.Skip(4); err != nil { // blocks_lo
		return nil, err
	}
	flags, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	n.flags = flags
	if err := c.Skip(4); err != nil { // os_specific
		return nil, err
	}
	blockMap, err := c.ReadExact(60)
	if err != nil {
		return nil, err
	}
	copy(n.blockMap[:], blockMap)
	if err := c.Skip(4); err != nil { // generation
		return nil, err
	}
	if err := c.Skip(4); err != nil { // file_acl_lo
		return nil, err
	}
	dirACLOrSizeHi, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	n.dirACLOrSizeHi = dirACLOrSizeHi

	return &n, nil
}
