// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package formats wires every concrete format handler into one ordered
// registry.Registry, mirroring the teacher's probe.go top-level dispatch
// switch (which tried each known disk-image/archive shape in a fixed order
// and fell through to the next on mismatch).
package formats

import (
	"github.com/elliotnunn/lazysrc/formats/apm"
	"github.com/elliotnunn/lazysrc/formats/bzip2"
	"github.com/elliotnunn/lazysrc/formats/cdfs"
	"github.com/elliotnunn/lazysrc/formats/dmg"
	"github.com/elliotnunn/lazysrc/formats/ext"
	"github.com/elliotnunn/lazysrc/formats/gzip"
	"github.com/elliotnunn/lazysrc/formats/mbr"
	"github.com/elliotnunn/lazysrc/formats/qcow2"
	"github.com/elliotnunn/lazysrc/formats/tar"
	"github.com/elliotnunn/lazysrc/formats/xz"
	"github.com/elliotnunn/lazysrc/formats/zip"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// NewRegistry returns a Registry with every format this module implements
// registered in a fixed, deliberate order: the disk/partition/filesystem
// formats that probe a handful of fixed offsets (spec.md's core formats,
// plus the structurally-trivial cdfs/mbr/apm) are tried before the
// container/compression wrappers, whose Matches probes are comparatively
// more likely to produce a false positive on an unrelated binary blob.
func NewRegistry() *registry.Registry {
	r := registry.New()
	r.Register(registry.Format{Name: "dmg", Matches: dmg.Matches, New: dmg.New})
	// qcow2.New takes an extra Resolver argument (spec.md §4.5's backing-file
	// recursion), so it cannot be assigned to Format.New directly; wrap it to
	// close over the registry itself, letting a backing file be recognised
	// through the same Registry its child is found in.
	r.Register(registry.Format{Name: "qcow2", Matches: qcow2.Matches, New: func(src source.Source) (registry.Handler, error) {
		return qcow2.New(src, r.Recognise)
	}})
	r.Register(registry.Format{Name: "ext", Matches: ext.Matches, New: ext.New})
	r.Register(registry.Format{Name: "cdfs", Matches: cdfs.Matches, New: cdfs.New})
	r.Register(registry.Format{Name: "apm", Matches: apm.Matches, New: apm.New})
	r.Register(registry.Format{Name: "mbr", Matches: mbr.Matches, New: mbr.New})
	r.Register(registry.Format{Name: "zip", Matches: zip.Matches, New: zip.New})
	r.Register(registry.Format{Name: "tar", Matches: tar.Matches, New: tar.New})
	r.Register(registry.Format{Name: "gzip", Matches: gzip.Matches, New: gzip.New})
	r.Register(registry.Format{Name: "bzip2", Matches: bzip2.Matches, New: bzip2.New})
	r.Register(registry.Format{Name: "xz", Matches: xz.Matches, New: xz.New})
	return r
}
