// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/source"
)

// groupDescriptor is the subset of a block group descriptor this decoder
// needs: where that group's inode table lives.
type groupDescriptor struct {
	inodeTableLo uint32
}

// readGroupDescriptors reads the whole group descriptor table following the
// superblock, one descriptor of desc_size bytes per group.
func readGroupDescriptors(src source.Source, sb *superblock) ([]groupDescriptor, error) {
	base := sb.groupDescriptorTableOffset()
	stride := sb.descriptorSize()
	n := sb.groupCount()

	out := make([]groupDescriptor, n)
	for i := uint32(0); i < n; i++ {
		c := cursor.New(src)
		if err := c.Seek(base + int64(i)*stride); err != nil {
			return nil, err
		}
		if err := c.Skip(8); err != nil { // block_bitmap_lo, inode_bitmap_lo
			return nil, err
		}
		inodeTableLo, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		out[i] = groupDescriptor{inodeTableLo: inodeTableLo}
	}
	return out, nil
}
