// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package ext

import (
	"github.com/elliotnunn/lazysrc/attr"
	"github.com/elliotnunn/lazysrc/blockdev"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// rootInodeNumber is the fixed inode number of the filesystem root
// directory, a standard ext2/3/4 convention.
const rootInodeNumber = 2

// Handler is the recognised registry.Handler for a directory within an ext
// filesystem. Selecting into a subdirectory yields another Handler rooted
// there; selecting a regular file yields a Sourceable fileHandler.
type Handler struct {
	src     source.Source
	sb      *superblock
	groups  []groupDescriptor
	inodeNo uint32
}

func (h *Handler) Name() string { return "ext" }

// FeatureAttributes exposes the filesystem's decoded feature-flag bundles,
// per spec.md §4.7's named-boolean forward-compatibility reporting.
func (h *Handler) FeatureAttributes() *attr.Attributes { return h.sb.FeatureAttributes() }

// New decodes src's superblock and group descriptor table, and positions at
// the root directory. It assumes Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	sb, err := readSuperblock(src)
	if err != nil {
		return nil, err
	}
	groups, err := readGroupDescriptors(src, sb)
	if err != nil {
		return nil, err
	}
	return &Handler{src: src, sb: sb, groups: groups, inodeNo: rootInodeNumber}, nil
}

func (h *Handler) entries() ([]dirent, error) {
	ino, err := readInode(h.src, h.sb, h.groups, h.inodeNo)
	if err != nil {
		return nil, err
	}
	if !ino.isDir() {
		return nil, kind.New(kind.CorruptMetadata, "ext.Handler.entries", "inode is not a directory")
	}
	return readDirEntries(h.src, h.sb, h.groups, ino)
}

func (h *Handler) List() ([]registry.Child, error) {
	entries, err := h.entries()
	if err != nil {
		return nil, err
	}
	out := make([]registry.Child, len(entries))
	for i, e := range entries {
		k := registry.KindOther
		switch e.fileType {
		case fileTypeDirectory:
			k = registry.KindDirectory
		case fileTypeRegular:
			k = registry.KindFile
		}
		out[i] = registry.Child{Name: e.name, Kind: k}
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	entries, err := h.entries()
	if err != nil {
		return nil, err
	}
	e, ok := findDirent(entries, name)
	if !ok {
		return nil, kind.New(kind.InvalidArgument, "ext.Handler.Select", "no such entry: "+name)
	}

	switch e.fileType {
	case fileTypeDirectory:
		return &Handler{src: h.src, sb: h.sb, groups: h.groups, inodeNo: e.inode}, nil
	case fileTypeRegular:
		ino, err := readInode(h.src, h.sb, h.groups, e.inode)
		if err != nil {
			return nil, err
		}
		dev := &inodeDevice{src: h.src, sb: h.sb, groups: h.groups, ino: ino}
		return &fileHandler{blockdev.AsSource(dev, "ext-file-"+name)}, nil
	default:
		return nil, errUnsupportedFileType
	}
}

type fileHandler struct{ src source.Source }

func (f *fileHandler) Name() string                   { return "ext-file" }
func (f *fileHandler) Source() (source.Source, error) { return f.src, nil }
