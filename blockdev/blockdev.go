// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package blockdev implements the fixed-block-size provider abstraction
// (spec.md §4.2) that every compressed, sparse, or block-mapped format in
// this module is built on: qcow2 cluster tables, DMG sector runs, and ext
// inode contents all expose a Device and are adapted into a flat source.Source
// via AsSource.
package blockdev

import "github.com/elliotnunn/lazysrc/source"

// Device maps block numbers to source.Source windows.
//
// GetBlock(n) must return a Source of length <= BlockSize(); the returned
// Source is an independent child, not shared state the caller must avoid
// mutating (there is nothing to mutate — Source is read-only), but distinct
// calls to GetBlock may return distinct objects even for the same n, per
// the owning device's caching policy.
type Device interface {
	BlockSize() int64
	Size() int64
	GetBlock(n int64) (source.Source, error)
}
