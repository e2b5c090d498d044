// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package blockdev

import (
	"fmt"

	"github.com/elliotnunn/lazysrc/source"
)

// FileDevice is a fixed-block-size Device over an arbitrary source.Source
// (typically a source.File), used as the base of any format that wants to
// address its backing bytes block-by-block (spec.md §4.2 "File block
// device").
type FileDevice struct {
	backing   source.Source
	blockSize int64
	lru       *LRU
}

// NewFileDevice wraps backing as a Device of the given block size.
func NewFileDevice(backing source.Source, blockSize int64) *FileDevice {
	return &FileDevice{backing: backing, blockSize: blockSize, lru: NewLRU(DefaultCapacity)}
}

func (d *FileDevice) BlockSize() int64 { return d.blockSize }
func (d *FileDevice) Size() int64      { return d.backing.Size() }

func (d *FileDevice) GetBlock(n int64) (source.Source, error) {
	label := fmt.Sprintf("%s#block%d", d.backing.Label(), n)
	return d.lru.GetOrLoad(n, label, func() (source.Source, error) {
		start := n * d.blockSize
		sz := d.blockSize
		if rem := d.backing.Size() - start; sz > rem {
			sz = rem
		}
		if sz < 0 {
			sz = 0
		}
		return source.NewWindow(d.backing, start, sz, label), nil
	})
}
