// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package ext decodes an ext2/3/4 filesystem: the superblock, the group
// descriptor table, inodes (extent and direct-block-pointer mapping only),
// and directory iteration (spec.md §4.7). Together with formats/dmg this is
// one of the two dense, bit-level formats this module exists to decode.
package ext

import (
	"github.com/elliotnunn/lazysrc/attr"
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

const (
	superblockOffset = 1024
	superblockMagic  = 0x53EF

	goodOldRev = 0

	incompat64Bit = 0x80 // INCOMPAT_64BIT
)

// superblock holds the fields this decoder needs; everything else on-disk is
// skipped rather than stored.
type superblock struct {
	inodesCount       uint32
	blocksCountLo     uint32
	firstDataBlock    uint32
	logBlockSize      uint32
	blocksPerGroup    uint32
	inodesPerGroup    uint32
	revLevel          uint32

	inodeSize uint16
	descSize  uint16

	featureCompat   uint32
	featureIncompat uint32
	featureRoCompat uint32
}

// compatFeatureNames, incompatFeatureNames, and roCompatFeatureNames name
// the bits this decoder recognises; anything else folds into an "unknown"
// residual entry, per spec.md §4.7's "forward compatibility reporting".
var (
	compatFeatureNames = map[uint32]string{
		0x1:  "dir_prealloc",
		0x4:  "has_journal",
		0x8:  "ext_attr",
		0x10: "resize_inode",
		0x20: "dir_index",
	}
	incompatFeatureNames = map[uint32]string{
		0x1:   "compression",
		0x2:   "filetype",
		0x4:   "needs_recovery",
		0x8:   "journal_dev",
		0x10:  "meta_bg",
		0x40:  "extents",
		0x80:  "64bit",
		0x200: "mmp",
		0x400: "flex_bg",
	}
	roCompatFeatureNames = map[uint32]string{
		0x1:  "sparse_super",
		0x2:  "large_file",
		0x8:  "huge_file",
		0x10: "gdt_csum",
		0x20: "dir_nlink",
		0x40: "extra_isize",
	}
)

// featureBundle decodes bits against names, folding unrecognised bits into
// a residual bitfield stored under "::unknown".
func featureBundle(bits uint32, names map[uint32]string) *attr.Attributes {
	out := attr.New()
	var unknown uint32
	for bit := uint32(1); bit != 0; bit <<= 1 {
		if bits&bit == 0 {
			continue
		}
		if name, ok := names[bit]; ok {
			out.Set(name, int64(1))
		} else {
			unknown |= bit
		}
	}
	if unknown != 0 {
		out.Set("::unknown", int64(unknown))
	}
	return out
}

// FeatureAttributes decodes the three feature-flag words into named-boolean
// bundles for forward-compatibility reporting.
func (sb *superblock) FeatureAttributes() *attr.Attributes {
	out := attr.New()
	out.Set("compat", featureBundle(sb.featureCompat, compatFeatureNames))
	out.Set("incompat", featureBundle(sb.featureIncompat, incompatFeatureNames))
	out.Set("ro_compat", featureBundle(sb.featureRoCompat, roCompatFeatureNames))
	return out
}

// blockSize is 1 << (10 + log_block_size), spec.md §4.7 "Derived quantities".
func (sb *superblock) blockSize() int64 { return 1 << (10 + sb.logBlockSize) }

// descriptorSize is 32 unless the 64-bit incompat feature is set.
func (sb *superblock) descriptorSize() int64 {
	if sb.featureIncompat&incompat64Bit != 0 && sb.descSize > 32 {
		return int64(sb.descSize)
	}
	return 32
}

// groupDescriptorTableOffset follows the superblock's own block, or the one
// after it when block_size == 1024 (because the superblock itself occupies
// the first 1024-byte block in that case).
func (sb *superblock) groupDescriptorTableOffset() int64 {
	bs := sb.blockSize()
	if bs > 1024 {
		return bs
	}
	return 2 * bs
}

func (sb *superblock) groupCount() uint32 {
	n := sb.blocksCountLo / sb.blocksPerGroup
	if sb.blocksCountLo%sb.blocksPerGroup != 0 {
		n++
	}
	return n
}

// Matches probes for the ext magic at its fixed offset.
func Matches(src source.Source) bool {
	var buf [2]byte
	n, err := src.ReadAt(buf[:], superblockOffset+56)
	if err != nil || n != 2 {
		return false
	}
	return uint16(buf[0]) | uint16(buf[1])<<8 == superblockMagic
}

func readSuperblock(src source.Source) (*superblock, error) {
	c := cursor.New(src)
	if err := c.Seek(superblockOffset); err != nil {
		return nil, err
	}

	var sb superblock
	var err error
	if sb.inodesCount, err = c.U32LE(); err != nil {
		return nil, err
	}
	if sb.blocksCountLo, err = c.U32LE(); err != nil {
		return nil, err
	}
	if err := c.Skip(4); err != nil { // r_blocks_count_lo
		return nil, err
	}
	if err := c.Skip(4); err != nil { // free_blocks_count_lo
		return nil, err
	}
	if err := c.Skip(4); err != nil { // free_inodes_count
		return nil, err
	}
	if sb.firstDataBlock, err = c.U32LE(); err != nil {
		return nil, err
	}
	if sb.logBlockSize, err = c.U32LE(); err != nil {
		return nil, err
	}
	if err := c.Skip(4); err != nil { // log_cluster_size
		return nil, err
	}
	if sb.blocksPerGroup, err = c.U32LE(); err != nil {
		return nil, err
	}
	if err := c.Skip(4); err != nil { // clusters_per_group
		return nil, err
	}
	if sb.inodesPerGroup, err = c.U32LE(); err != nil {
		return nil, err
	}
	if err := c.Skip(4 + 4); err != nil { // mtime, wtime
		return nil, err
	}
	if err := c.Skip(2 + 2); err != nil { // mnt_count, max_mnt_count
		return nil, err
	}
	magic, err := c.U16LE()
	if err != nil {
		return nil, err
	}
	if magic != superblockMagic {
		return nil, kind.New(kind.CorruptMetadata, "ext.readSuperblock", "bad magic")
	}
	if err := c.Skip(2 + 2 + 2); err != nil { // state, errors, minor_rev_level
		return nil, err
	}
	if err := c.Skip(4 + 4 + 4); err != nil { // lastcheck, checkinterval, creator_os
		return nil, err
	}
	revLevel, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	sb.revLevel = revLevel
	if err := c.Skip(2 + 2); err != nil { // def_resuid, def_resgid
		return nil, err
	}

	if sb.blocksPerGroup == 0 || sb.inodesPerGroup == 0 {
		return nil, kind.New(kind.CorruptMetadata, "ext.readSuperblock", "zero blocks_per_group or inodes_per_group")
	}

	if sb.revLevel == goodOldRev {
		sb.inodeSize = 128
		sb.descSize = 32
		return &sb, nil
	}

	if err := c.Skip(4); err != nil { // first_ino
		return nil, err
	}
	inodeSize, err := c.U16LE()
	if err != nil {
		return nil, err
	}
	sb.inodeSize = inodeSize
	if err := c.Skip(2); err != nil { // block_group_nr
		return nil, err
	}
	featureCompat, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	sb.featureCompat = featureCompat
	featureIncompat, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	sb.featureIncompat = featureIncompat
	featureRoCompat, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	sb.featureRoCompat = featureRoCompat
	if err := c.Skip(16); err != nil { // uuid
		return nil, err
	}
	if _, err := c.NullClippedString(16); err != nil { // volume_name
		return nil, err
	}
	if _, err := c.NullClippedString(64); err != nil { // last_mounted
		return nil, err
	}
	if err := c.Skip(4); err != nil { // algorithm_usage_bitmap
		return nil, err
	}
	if err := c.Skip(1 + 1); err != nil { // prealloc_blocks, prealloc_dir_blocks
		return nil, err
	}
	if err := c.Skip(2); err != nil { // reserved_gdt_blocks
		return nil, err
	}
	if err := c.Skip(16); err != nil { // journal_uuid
		return nil, err
	}
	if err := c.Skip(4 + 4 + 4); err != nil { // journal_inum, journal_dev, last_orphan
		return nil, err
	}
	if err := c.Skip(4 * 4); err != nil { // hash_seed
		return nil, err
	}
	if err := c.Skip(1 + 1); err != nil { // def_hash_version, jnl_backup_type
		return nil, err
	}
	descSize, err := c.U16LE()
	if err != nil {
		return nil, err
	}
	sb.descSize = descSize
	// Remaining fields (default_mount_opts .. checksum) are not needed by
	// this decoder's derived quantities or mapping logic.

	return &sb, nil
}
