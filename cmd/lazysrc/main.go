// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command lazysrc is a thin example driver over the lazysrc library: open a
// file, recognise its format, and either list its children or dump the
// bytes of a selected one. The full interactive navigation verbs (list,
// select, dump, hex, copy) that the teacher's own command line offers are
// explicitly out of scope for this module (spec.md §1); this is the "one
// obvious example" that exercises the registry and the Listable/Sourceable
// handler split end to end, in the spirit of the teacher's own minimal
// main.go (one os.Args[1], no subcommand framework).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/lazysrc/formats"
	"github.com/elliotnunn/lazysrc/registry"
	"github.com/elliotnunn/lazysrc/source"
)

func main() {
	selectFlag := flag.String("select", "", "slash-separated path of child names (glob patterns allowed per segment) to descend into before printing")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lazysrc [-select a/glob*/path] <file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *selectFlag); err != nil {
		log.Fatal(err)
	}
}

func run(path, selectPath string) error {
	f, err := source.OpenFile(path)
	if err != nil {
		return err
	}

	reg := formats.NewRegistry()
	h, err := reg.Recognise(f)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%s: no recognised format", path)
	}

	if selectPath != "" {
		h, err = descend(reg, h, strings.Split(selectPath, "/"))
		if err != nil {
			return err
		}
	}

	return dump(reg, h)
}

// descend walks h through each path segment in segs, re-recognising
// whenever it crosses into a Sourceable handler's child source, matching
// spec.md §4.4's "recognise -> select child -> recognise again" cycle.
// Each segment may be a glob pattern (bmatcuk/doublestar), matched against
// the current handler's List() names.
func descend(reg *registry.Registry, h registry.Handler, segs []string) (registry.Handler, error) {
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		lh, ok := h.(registry.Listable)
		if !ok {
			var err error
			h, err = recogniseThrough(reg, h)
			if err != nil {
				return nil, err
			}
			lh, ok = h.(registry.Listable)
			if !ok {
				return nil, fmt.Errorf("cannot descend into %q: %s is not listable", seg, h.Name())
			}
		}

		children, err := lh.List()
		if err != nil {
			return nil, err
		}

		name, err := matchChild(seg, children)
		if err != nil {
			return nil, err
		}

		h, err = lh.Select(name)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func matchChild(pattern string, children []registry.Child) (string, error) {
	for _, c := range children {
		if c.Name == pattern {
			return c.Name, nil
		}
	}
	for _, c := range children {
		if doublestar.MatchUnvalidated(pattern, c.Name) {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("no child matches %q", pattern)
}

// recogniseThrough asks a Sourceable handler for its Source and recognises
// the result, for the case where a -select path needs to continue past a
// format boundary (e.g. a qcow2 image's source containing an ext4
// filesystem) without an explicit intervening path segment.
func recogniseThrough(reg *registry.Registry, h registry.Handler) (registry.Handler, error) {
	sh, ok := h.(registry.Sourceable)
	if !ok {
		return h, nil
	}
	src, err := sh.Source()
	if err != nil {
		return nil, err
	}
	next, err := reg.Recognise(src)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("%s: child source has no recognised format", h.Name())
	}
	return next, nil
}

// dump prints a Listable handler's children, or writes a Sourceable
// handler's bytes to stdout.
func dump(reg *registry.Registry, h registry.Handler) error {
	switch t := h.(type) {
	case registry.Listable:
		children, err := t.List()
		if err != nil {
			return err
		}
		for _, c := range children {
			suffix := ""
			if c.Kind == registry.KindDirectory {
				suffix = "/"
			}
			fmt.Println(c.Name + suffix)
		}
		return nil
	case registry.Sourceable:
		src, err := t.Source()
		if err != nil {
			return err
		}
		if next, err := reg.Recognise(src); err == nil && next != nil {
			log.Printf("lazysrc: %s's source also matches %s; dumping raw bytes instead (use -select to descend into it)", h.Name(), next.Name())
		}
		return copySource(os.Stdout, src)
	default:
		return fmt.Errorf("%s is neither listable nor sourceable", h.Name())
	}
}

// copySource streams src to w in fixed-size chunks, exercising the same
// ReadAt contract every other layer of this module is built on rather than
// assuming src also implements io.Reader.
func copySource(w io.Writer, src source.Source) error {
	const chunk = 1 << 16
	buf := make([]byte, chunk)
	var off int64
	for {
		n, err := src.ReadAt(buf, off)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, werr := w.Write(buf[:n]); werr != nil {
			return werr
		}
		off += int64(n)
	}
}
