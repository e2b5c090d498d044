// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"github.com/elliotnunn/lazysrc/blockdev"
	"github.com/elliotnunn/lazysrc/cursor"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

const (
	fileTypeRegular   = 1
	fileTypeDirectory = 2
)

type dirent struct {
	inode    uint32
	fileType uint8
	name     string
}

// readDirEntries walks a directory inode's contents, per spec.md §4.7
// "Directory entries": inode(u32), rec_len(u16), name_len(u8),
// file_type(u8), name. "." and ".." are omitted; tombstones (inode == 0)
// are skipped; rec_len == 0 terminates defensively.
func readDirEntries(src source.Source, sb *superblock, groups []groupDescriptor, dirIno *inode) ([]dirent, error) {
	dev := &inodeDevice{src: src, sb: sb, groups: groups, ino: dirIno}
	contents := blockdev.AsSource(dev, "ext-dir")
	c := cursor.New(contents)

	var out []dirent
	size := contents.Size()
	for c.Tell() < size {
		start := c.Tell()
		rawInode, err := c.U32LE()
		if err != nil {
			return nil, err
		}
		recLen, err := c.U16LE()
		if err != nil {
			return nil, err
		}
		nameLen, err := c.U8()
		if err != nil {
			return nil, err
		}
		fileType, err := c.U8()
		if err != nil {
			return nil, err
		}
		if recLen == 0 {
			break
		}
		if rawInode != 0 {
			name, err := c.NullClippedString(int(nameLen))
			if err != nil {
				return nil, err
			}
			if name != "." && name != ".." {
				out = append(out, dirent{inode: rawInode, fileType: fileType, name: name})
			}
		}
		if err := c.Seek(start + int64(recLen)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func findDirent(entries []dirent, name string) (dirent, bool) {
	for _, e := range entries {
		if e.name == name {
			return e, true
		}
	}
	return dirent{}, false
}

var errUnsupportedFileType = kind.New(kind.UnsupportedFormatFeature, "ext.Select", "directory entry file_type is not navigable")
