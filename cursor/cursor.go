// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package cursor implements a stateful position over a source.Source,
// offering the primitive typed reads that every format decoder in this
// module is built from.
package cursor

import (
	"encoding/binary"

	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
	"github.com/google/uuid"
)

// Cursor is a (source, position) pair. Reads advance position by exactly
// the number of bytes returned.
type Cursor struct {
	Src source.Source
	pos int64
}

// New returns a Cursor positioned at the start of src.
func New(src source.Source) *Cursor { return &Cursor{Src: src} }

// Tell reports the current position.
func (c *Cursor) Tell() int64 { return c.pos }

// End reports src's size.
func (c *Cursor) End() int64 { return c.Src.Size() }

// Seek moves to absolute position n. n must be non-negative.
func (c *Cursor) Seek(n int64) error {
	if n < 0 {
		return kind.New(kind.InvalidArgument, "Cursor.Seek", "negative position")
	}
	c.pos = n
	return nil
}

// Skip moves the position by delta, which may be negative. The result must
// stay non-negative.
func (c *Cursor) Skip(delta int64) error {
	if c.pos+delta < 0 {
		return kind.New(kind.InvalidArgument, "Cursor.Skip", "would move position below zero")
	}
	c.pos += delta
	return nil
}

// Read reads up to n bytes and advances the position by exactly the number
// of bytes returned. It errors only on a malformed request or when the
// underlying source read fails.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, kind.New(kind.InvalidArgument, "Cursor.Read", "negative length")
	}
	buf := make([]byte, n)
	got, err := c.Src.ReadAt(buf, c.pos)
	if err != nil {
		return nil, kind.Wrap(kind.IoFailure, "Cursor.Read", c.Src.Label(), err)
	}
	c.pos += int64(got)
	return buf[:got], nil
}

// ReadExact reads exactly n bytes or fails with TruncatedSource.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	buf, err := c.Read(n)
	if err != nil {
		return nil, err
	}
	if len(buf) != n {
		return nil, kind.New(kind.TruncatedSource, "Cursor.ReadExact", c.Src.Label())
	}
	return buf, nil
}

func (c *Cursor) u8() (byte, error) {
	b, err := c.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U8 reads one unsigned byte.
func (c *Cursor) U8() (uint8, error) { return c.u8() }

// I8 reads one signed byte.
func (c *Cursor) I8() (int8, error) {
	b, err := c.u8()
	return int8(b), err
}

// U16LE/U16BE/U32LE/U32BE/U64LE/U64BE read fixed-width integers in the named endianness.

func (c *Cursor) U16LE() (uint16, error) { return readFixed(c, 2, binary.LittleEndian.Uint16) }
func (c *Cursor) U16BE() (uint16, error) { return readFixed(c, 2, binary.BigEndian.Uint16) }
func (c *Cursor) U32LE() (uint32, error) { return readFixed(c, 4, binary.LittleEndian.Uint32) }
func (c *Cursor) U32BE() (uint32, error) { return readFixed(c, 4, binary.BigEndian.Uint32) }
func (c *Cursor) U64LE() (uint64, error) { return readFixed(c, 8, binary.LittleEndian.Uint64) }
func (c *Cursor) U64BE() (uint64, error) { return readFixed(c, 8, binary.BigEndian.Uint64) }

func readFixed[T uint16 | uint32 | uint64](c *Cursor, n int, decode func([]byte) T) (T, error) {
	b, err := c.ReadExact(n)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode(b), nil
}

// UUID reads a 16-byte UUID and renders it as canonical text.
func (c *Cursor) UUID() (string, error) {
	b, err := c.ReadExact(16)
	if err != nil {
		return "", err
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", kind.Wrap(kind.CorruptMetadata, "Cursor.UUID", c.Src.Label(), err)
	}
	return id.String(), nil
}

// NullClippedString reads n bytes and returns the prefix before the first
// zero byte (or the whole n bytes if there is none).
func (c *Cursor) NullClippedString(n int) (string, error) {
	b, err := c.ReadExact(n)
	if err != nil {
		return "", err
	}
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}

// ReadLine reads up to and including the next LF, or to end of source.
func (c *Cursor) ReadLine() ([]byte, error) {
	var line []byte
	for {
		b, err := c.Read(1)
		if err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return line, nil
		}
		line = append(line, b[0])
		if b[0] == '\n' {
			return line, nil
		}
	}
}

// Sub returns a window Source starting at the current position. If size is
// omitted (negative), the window runs to the parent's end. Sub always
// returns a Window — never the underlying Source directly — because Window
// is the only layer that clamps reads against logical size (spec.md §4.3).
func (c *Cursor) Sub(size int64) source.Source {
	if size < 0 {
		size = c.Src.Size() - c.pos
		if size < 0 {
			size = 0
		}
	}
	return source.NewWindow(c.Src, c.pos, size, c.Src.Label())
}
