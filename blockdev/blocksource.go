// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package blockdev

import (
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// BlockSource adapts a Device into a source.Source by gathering per-block
// reads to service any (offset, length) within the device's size,
// satisfying requests that straddle block boundaries by concatenation
// (spec.md §4.2 read algorithm).
type BlockSource struct {
	dev   Device
	label string
}

// AsSource adapts dev into a source.Source.
func AsSource(dev Device, label string) *BlockSource {
	return &BlockSource{dev: dev, label: label}
}

func (b *BlockSource) Size() int64   { return b.dev.Size() }
func (b *BlockSource) Label() string { return b.label }

func (b *BlockSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, kind.New(kind.InvalidArgument, "BlockSource.ReadAt", "negative offset")
	}
	size := b.dev.Size()
	if off >= size {
		return 0, nil
	}
	if max := size - off; int64(len(p)) > max {
		p = p[:max]
	}

	bs := b.dev.BlockSize()
	total := 0
	for total < len(p) {
		cur := off + int64(total)
		blockNo := cur / bs
		intraOff := cur % bs
		want := len(p) - total
		if remaining := bs - intraOff; int64(want) > remaining {
			want = int(remaining)
		}

		blk, err := b.dev.GetBlock(blockNo)
		if err != nil {
			return total, err
		}
		c := cursor.New(blk)
		if err := c.Seek(intraOff); err != nil {
			return total, err
		}
		got, err := c.Read(want)
		if err != nil {
			return total, err
		}
		copy(p[total:], got)
		total += len(got)
		if len(got) < want {
			// The block was shorter than expected (the truncated last
			// block of the device); there is nothing more to read.
			break
		}
	}
	return total, nil
}
