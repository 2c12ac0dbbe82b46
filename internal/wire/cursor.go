// Package wire implements a bounds-checked, forward reading cursor over
// big-endian binary datagrams.
package wire

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Cursor reads fixed-width big-endian integers and length-prefixed strings
// from an immutable buffer. A read that would cross the end of the buffer
// fails with *TruncatedError and leaves the position unchanged.
type Cursor struct {
	buf  []byte
	pos  int
	base int // absolute offset of buf[0], non-zero for windows
}

// New returns a cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the absolute offset of the next byte to be read.
func (c *Cursor) Pos() int {
	return c.base + c.pos
}

// Len returns the absolute offset one past the last readable byte.
func (c *Cursor) Len() int {
	return c.base + len(c.buf)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Seek moves the cursor to an absolute offset inside the buffer.
// Seeking exactly to Len is allowed, anything past it is truncated and
// anything before the start of a window is out of range.
func (c *Cursor) Seek(offset int) error {
	rel := offset - c.base
	if rel < 0 {
		return ErrOutOfRange
	}
	if rel > len(c.buf) {
		return &TruncatedError{Offset: c.Pos(), Need: offset - c.Pos(), Have: c.Remaining()}
	}
	c.pos = rel
	return nil
}

// AdvanceTo moves the cursor forward to an absolute offset. It is used to
// step over a declared-size block no matter how much of it was understood.
func (c *Cursor) AdvanceTo(offset int) error {
	if offset < c.Pos() {
		return ErrBackwardSeek
	}
	return c.Seek(offset)
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if _, err := c.take(n); err != nil {
		return err
	}
	return nil
}

// Window returns a cursor over the next n bytes. Offsets reported by the
// window stay absolute. The parent cursor is not advanced.
func (c *Cursor) Window(n int) (*Cursor, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	return &Cursor{buf: c.buf[c.pos : c.pos+n], base: c.Pos()}, nil
}

// Bytes reads n raw bytes. The returned slice aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

// U8 reads one unsigned byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a big-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// I32 reads a big-endian two's complement int32.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// U64 reads a big-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// String reads a string prefixed with a single length byte. Characters are
// one byte each and decoded as ISO-8859-1. If the body is truncated the
// length byte is not consumed either.
func (c *Cursor) String() (string, error) {
	start := c.pos
	n, err := c.U8()
	if err != nil {
		return "", err
	}

	b, err := c.take(int(n))
	if err != nil {
		c.pos = start
		return "", err
	}

	// Every byte maps to a code point, decoding cannot fail.
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s), nil
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return &TruncatedError{Offset: c.Pos(), Need: n, Have: c.Remaining()}
	}
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
