// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package registry

import (
	"log"

	"github.com/elliotnunn/lazysrc/source"
)

// Format is one entry in a Registry: a name, a magic-test probe, and a
// constructor. Matches must be a static probe — it must not mutate external
// state and must tolerate short sources, per spec.md §4.4.
type Format struct {
	Name    string
	Matches func(src source.Source) bool
	New     func(src source.Source) (Handler, error)
}

// Registry holds Formats in insertion order and tries them in that order.
type Registry struct {
	formats []Format
}

// New returns an empty Registry.
func New() *Registry { return &Registry{} }

// Register appends f to the registry. Order matters: FirstMatch tries
// formats in registration order and returns the first success.
func (r *Registry) Register(f Format) { r.formats = append(r.formats, f) }

// FirstMatch returns the first Format whose Matches(src) is true, or nil if
// none match. A panicking or erroring Matches probe is caught, logged, and
// treated as non-match so that later formats still get a chance
// (spec.md §4.4 "matches failures are logged and treated as non-match").
func (r *Registry) FirstMatch(src source.Source) *Format {
	for i := range r.formats {
		f := &r.formats[i]
		if safeMatches(f, src) {
			return f
		}
	}
	return nil
}

func safeMatches(f *Format, src source.Source) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("registry: %s.Matches panicked, treating as non-match: %v", f.Name, p)
			ok = false
		}
	}()
	return f.Matches(src)
}

// Recognise probes src against every registered format in order and, for
// the first match, constructs and returns its Handler.
func (r *Registry) Recognise(src source.Source) (Handler, error) {
	f := r.FirstMatch(src)
	if f == nil {
		return nil, nil
	}
	h, err := f.New(src)
	if err != nil {
		log.Printf("registry: %s.New failed after a magic match: %v", f.Name, err)
		return nil, err
	}
	return h, nil
}
