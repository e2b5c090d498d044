// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package registry implements the ordered format-recognition registry and
// the Handler shapes (spec.md §3, §4.4) that every format package in
// formats/* implements.
package registry

import "github.com/elliotnunn/lazysrc/source"

// ChildKind hints at what Select(name) is expected to yield, for callers
// building a navigation UI; it carries no behavioral meaning.
type ChildKind int

const (
	KindUnknown ChildKind = iota
	KindDirectory
	KindFile
	KindOther
)

// Child is one entry returned by Listable.List.
type Child struct {
	Name string
	Kind ChildKind
}

// Handler is implemented by every recognised format. A Handler is either
// Listable or Sourceable, never both — spec.md §3 "never both
// simultaneously".
type Handler interface {
	// Name identifies the format, e.g. "ext4", "dmg", "qcow2".
	Name() string
}

// Listable is a Handler that names child entries and can descend into one.
type Listable interface {
	Handler
	List() ([]Child, error)
	Select(name string) (Handler, error)
}

// Sourceable is a Handler that yields a byte source one layer down.
type Sourceable interface {
	Handler
	Source() (source.Source, error)
}
