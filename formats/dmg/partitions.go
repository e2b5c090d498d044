// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"sort"
	"strings"

	"github.com/elliotnunn/lazysrc/attr"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// partition is one decoded blkx entry: a named run of the whole DMG's
// sector space, addressable as its own 512-byte-block device.
type partition struct {
	id    string
	name  string
	chunks []chunkEntry
}

// partitionsFromPlist walks resource_fork -> blkx -> * (spec.md §4.6) and
// returns the partitions sorted so that any name containing "Apple_HFS"
// comes first — a heuristic to surface the main filesystem, cosmetic only
// (spec.md §9 open question: "callers that rely on stable ordering should
// address partitions by ID, not position").
func partitionsFromPlist(root *attr.Attributes) ([]partition, error) {
	rf := root.GetAttributes("resource_fork")
	if rf == nil {
		return nil, kind.New(kind.CorruptMetadata, "dmg.partitionsFromPlist", "missing resource_fork")
	}
	blkxArr := rf.GetArray("blkx")
	if blkxArr == nil {
		return nil, kind.New(kind.CorruptMetadata, "dmg.partitionsFromPlist", "missing resource_fork.blkx")
	}

	var out []partition
	for _, v := range blkxArr {
		entryDict, ok := v.(*attr.Attributes)
		if !ok {
			continue
		}
		id := entryDict.GetString("ID")
		name := entryDict.GetString("CFName")
		if name == "" {
			name = entryDict.GetString("Name")
		}
		dataVal, ok := entryDict.Get("Data")
		if !ok {
			continue
		}
		raw, ok := dataVal.([]byte)
		if !ok {
			continue
		}
		chunks, err := parseBlockTable(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, partition{id: id, name: name, chunks: chunks})
	}

	sort.SliceStable(out, func(i, j int) bool {
		iHFS := strings.Contains(out[i].name, "Apple_HFS")
		jHFS := strings.Contains(out[j].name, "Apple_HFS")
		if iHFS != jHFS {
			return iHFS
		}
		return false
	})

	return out, nil
}

func (p *partition) sectorCount() uint64 {
	var max uint64
	for _, c := range p.chunks {
		if end := c.sectorNumber + c.sectorCount; end > max {
			max = end
		}
	}
	return max
}

func (p *partition) buildRuns(disk source.Source) ([]*run, error) {
	runs := make([]*run, 0, len(p.chunks))
	for _, c := range p.chunks {
		r, err := newRun(disk, c)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}
