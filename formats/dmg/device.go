// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// runDevice is a 512-byte-block blockdev.Device over one partition's runs
// (spec.md §4.2 "DMG run block device").
type runDevice struct {
	runs []*run
	size int64
}

func newRunDevice(runs []*run, sectors uint64) *runDevice {
	return &runDevice{runs: runs, size: int64(sectors) * sectorSize}
}

func (d *runDevice) BlockSize() int64 { return sectorSize }
func (d *runDevice) Size() int64      { return d.size }

func (d *runDevice) GetBlock(n int64) (source.Source, error) {
	sector := uint64(n)
	for _, r := range d.runs {
		if r.contains(sector) {
			return r.sector(sector)
		}
	}
	return nil, kind.New(kind.CorruptMetadata, "dmg.runDevice.GetBlock", "no run covers the requested sector")
}

// runDevice intentionally bypasses blockdev.LRU: each UDZO run already
// memoises its own decoded sectors (udzoRunState.cache), and uncompressed
// and zero-fill runs are cheap enough to re-slice on every call.
