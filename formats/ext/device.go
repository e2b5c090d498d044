// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// inodeDevice is the blockdev.Device backing one inode's contents, per
// spec.md §4.7 "Contents block device".
type inodeDevice struct {
	src    source.Source
	sb     *superblock
	groups []groupDescriptor
	ino    *inode
}

func (d *inodeDevice) BlockSize() int64 { return d.sb.blockSize() }
func (d *inodeDevice) Size() int64      { return d.ino.size() }

// GetBlock computes the raw on-disk block number for logical block n and
// returns a window of the overlap with the remaining file bytes, so the
// last block is truncated rather than spilling past size().
func (d *inodeDevice) GetBlock(n int64) (source.Source, error) {
	if n < 0 {
		return nil, kind.New(kind.InvalidArgument, "ext.inodeDevice.GetBlock", "negative block number")
	}
	raw, err := mapBlock(d.ino, uint64(n))
	if err != nil {
		return nil, err
	}

	bs := d.sb.blockSize()
	remaining := d.ino.size() - n*bs
	if remaining > bs {
		remaining = bs
	}
	if remaining < 0 {
		remaining = 0
	}

	return source.NewWindow(d.src, int64(raw)*bs, remaining, "ext-inode-block"), nil
}
