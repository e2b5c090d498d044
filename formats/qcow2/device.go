// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package qcow2

import (
	"github.com/elliotnunn/lazysrc/blockdev"
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

const blockSize = 512

const (
	l1EntryCopiedBit     = uint64(1) << 63
	l2EntryCompressedBit = uint64(1) << 62
	l1OffsetMask         = ^(l1EntryCopiedBit | l2EntryCompressedBit)
)

// device implements blockdev.Device over a qcow2 L1/L2 cluster table.
type device struct {
	disk        source.Source
	backing     source.Source
	size        int64
	clusterBits uint
	l1Bits      uint
	l2Bits      uint
	l1Offset    int64
	lru         *blockdev.LRU
}

func newDevice(disk source.Source, h *header, backing source.Source) (*device, error) {
	clusterBits := uint(h.clusterBits)
	l2Bits := clusterBits - 3
	l1Bits := 64 - 2 - l2Bits - clusterBits

	return &device{
		disk:        disk,
		backing:     backing,
		size:        int64(h.size),
		clusterBits: clusterBits,
		l1Bits:      l1Bits,
		l2Bits:      l2Bits,
		l1Offset:    int64(h.l1TableOffset),
		lru:         blockdev.NewLRU(blockdev.DefaultCapacity),
	}, nil
}

func (d *device) BlockSize() int64 { return blockSize }
func (d *device) Size() int64      { return d.size }

func (d *device) GetBlock(n int64) (source.Source, error) {
	label := "qcow2-block"
	return d.lru.GetOrLoad(n, label, func() (source.Source, error) {
		return d.mapBlock(n)
	})
}

func (d *device) mapBlock(n int64) (source.Source, error) {
	a := uint64(n) * blockSize
	clusterSize := uint64(1) << d.clusterBits
	l2Mask := (uint64(1) << d.l2Bits) - 1

	l1Index := a >> (d.l2Bits + d.clusterBits)
	l2Index := (a >> d.clusterBits) & l2Mask
	offsetInCluster := a & (clusterSize - 1)

	c := cursor.New(d.disk)
	if err := c.Seek(d.l1Offset + int64(l1Index)*8); err != nil {
		return nil, err
	}
	l1Entry, err := c.U64BE()
	if err != nil {
		return nil, kind.Wrap(kind.IoFailure, "qcow2.mapBlock", "reading L1 entry", err)
	}

	if l1Entry&l2EntryCompressedBit != 0 {
		return nil, kind.New(kind.UnsupportedFormatFeature, "qcow2.mapBlock", "compressed L2 table unsupported")
	}
	l2Offset := int64(l1Entry & l1OffsetMask)

	if l2Offset == 0 {
		return d.unallocated(n)
	}

	if err := c.Seek(l2Offset + int64(l2Index)*8); err != nil {
		return nil, err
	}
	l2Entry, err := c.U64BE()
	if err != nil {
		return nil, kind.Wrap(kind.IoFailure, "qcow2.mapBlock", "reading L2 entry", err)
	}

	if l2Entry&l2EntryCompressedBit != 0 {
		return nil, kind.New(kind.UnsupportedFormatFeature, "qcow2.mapBlock", "compressed cluster unsupported")
	}
	clusterOffset := int64(l2Entry & l1OffsetMask)

	if clusterOffset == 0 {
		return d.unallocated(n)
	}

	return source.NewWindow(d.disk, clusterOffset+int64(offsetInCluster), blockSize, "qcow2-cluster"), nil
}

func (d *device) unallocated(n int64) (source.Source, error) {
	if d.backing != nil {
		start := n * blockSize
		if start >= d.backing.Size() {
			return source.ZeroSector(), nil
		}
		sz := int64(blockSize)
		if rem := d.backing.Size() - start; sz > rem {
			sz = rem
		}
		return source.NewWindow(d.backing, start, sz, "qcow2-backing"), nil
	}
	return source.ZeroSector(), nil
}
