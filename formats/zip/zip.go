// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zip lists and navigates a zip archive, built directly on stdlib
// archive/zip (adapted from the teacher's probe.go zip branch, which opens
// archive/zip.NewReader over a random-access header source rather than
// hand-rolling a decoder the way internal/tar does for tar).
package zip

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

// Matches probes for the end-of-central-directory signature anywhere a
// plain archive/zip.NewReader call would find it; rather than re-implement
// that scan, Matches just asks archive/zip to open the source and discards
// the result, which is fine because Matches probes are required to tolerate
// failure and not mutate anything (spec.md §4.4).
func Matches(src source.Source) bool {
	if src.Size() < 22 { // minimum size of an empty zip's end-of-central-directory record
		return false
	}
	ra := readerAtFunc(src.ReadAt)
	_, err := zip.NewReader(io.NewSectionReader(ra, 0, src.Size()), src.Size())
	return err == nil
}

// Handler is the recognised registry.Handler for a directory within a zip
// archive (including the root).
type Handler struct {
	zr  *zip.Reader
	dir string // "" at the root, else a name ending in "/"
}

// New opens src as a zip archive and positions at its root. It assumes
// Matches(src) already passed.
func New(src source.Source) (registry.Handler, error) {
	ra := readerAtFunc(src.ReadAt)
	zr, err := zip.NewReader(io.NewSectionReader(ra, 0, src.Size()), src.Size())
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "zip.New", "opening central directory", err)
	}
	return &Handler{zr: zr}, nil
}

func (h *Handler) Name() string { return "zip" }

func (h *Handler) List() ([]registry.Child, error) {
	seen := make(map[string]registry.Child)
	var order []string
	for _, f := range h.zr.File {
		name := strings.TrimPrefix(f.Name, h.dir)
		if name == "" || !strings.HasPrefix(f.Name, h.dir) {
			continue
		}
		head, rest, isDir := name, "", false
		if i := strings.IndexByte(name, '/'); i >= 0 {
			head, rest, isDir = name[:i], name[i+1:], true
			_ = rest
		} else if strings.HasSuffix(f.Name, "/") {
			isDir = true
		}
		if head == "" {
			continue
		}
		if _, ok := seen[head]; !ok {
			order = append(order, head)
		}
		k := registry.KindFile
		if isDir {
			k = registry.KindDirectory
		}
		seen[head] = registry.Child{Name: head, Kind: k}
	}
	out := make([]registry.Child, len(order))
	for i, name := range order {
		out[i] = seen[name]
	}
	return out, nil
}

func (h *Handler) Select(name string) (registry.Handler, error) {
	if strings.Contains(name, "/") {
		return nil, kind.New(kind.InvalidArgument, "zip.Select", "name must not contain a path separator")
	}
	childDir := h.dir + name + "/"
	for _, f := range h.zr.File {
		if f.Name == childDir || strings.HasPrefix(f.Name, childDir) {
			return &Handler{zr: h.zr, dir: childDir}, nil
		}
	}
	childFile := h.dir + name
	for _, f := range h.zr.File {
		if f.Name == childFile && !f.FileInfo().IsDir() {
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			return &fileHandler{source.NewBlob(path.Base(name), data)}, nil
		}
	}
	return nil, kind.New(kind.InvalidArgument, "zip.Select", "no such entry: "+name)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "zip.readZipFile", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, kind.Wrap(kind.CorruptMetadata, "zip.readZipFile", f.Name, err)
	}
	return data, nil
}

type fileHandler struct{ src source.Source }

func (f *fileHandler) Name() string                   { return "zip-file" }
func (f *fileHandler) Source() (source.Source, error) { return f.src, nil }

// readerAtFunc adapts a source.Source's ReadAt method for use with
// io.NewSectionReader, matching formats/dmg's udzo.go helper of the same name.
type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }
