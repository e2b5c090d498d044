// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package registry

import (
	"errors"
	"testing"

	"github.com/elliotnunn/lazysrc/source"
)

type fakeHandler struct{ name string }

func (f *fakeHandler) Name() string { return f.name }

func TestFirstMatchOrderAndPanicRecovery(t *testing.T) {
	r := New()
	r.Register(Format{
		Name:    "panics",
		Matches: func(source.Source) bool { panic("boom") },
		New:     func(source.Source) (Handler, error) { return nil, nil },
	})
	r.Register(Format{
		Name:    "second",
		Matches: func(source.Source) bool { return true },
		New:     func(source.Source) (Handler, error) { return &fakeHandler{"second"}, nil },
	})

	h, err := r.Recognise(source.NewBlob("t", []byte("x")))
	if err != nil {
		t.Fatal(err)
	}
	if h == nil || h.Name() != "second" {
		t.Fatalf("expected second format to win, got %v", h)
	}
}

func TestRecogniseNoMatch(t *testing.T) {
	r := New()
	r.Register(Format{
		Name:    "never",
		Matches: func(source.Source) bool { return false },
		New:     func(source.Source) (Handler, error) { return nil, errors.New("unreachable") },
	})
	h, err := r.Recognise(source.NewBlob("t", []byte("x")))
	if err != nil || h != nil {
		t.Fatalf("expected no match, got %v, %v", h, err)
	}
}
