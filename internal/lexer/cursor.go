package lexer

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"tocin/internal/source"
)

// Cursor is a byte position inside a file's content.
type Cursor struct {
	File *source.File
	Off  uint32
}

func NewCursor(f *source.File) Cursor {
	return Cursor{File: f}
}

func (c *Cursor) limit() uint32 {
	n, err := safecast.Conv[uint32](len(c.File.Content))
	if err != nil {
		panic(fmt.Errorf("file content overflow: %w", err))
	}
	return n
}

func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.limit() {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump advances one byte.
func (c *Cursor) Bump() {
	if !c.EOF() {
		c.Off++
	}
}

// PeekRune decodes the rune at the cursor.
func (c *Cursor) PeekRune() (rune, uint32) {
	if c.EOF() {
		return utf8.RuneError, 0
	}
	r, size := utf8.DecodeRune(c.File.Content[c.Off:])
	sz, err := safecast.Conv[uint32](size)
	if err != nil {
		panic(fmt.Errorf("rune size overflow: %w", err))
	}
	return r, sz
}

// Slice returns source text between from and the cursor.
func (c *Cursor) Slice(from uint32) string {
	return string(c.File.Content[from:c.Off])
}

// SpanFrom builds a span covering [from, Off).
func (c *Cursor) SpanFrom(from uint32) source.Span {
	return source.Span{File: c.File.ID, Start: from, End: c.Off}
}
