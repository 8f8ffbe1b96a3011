package core

import (
	"fmt"
	"time"

	"pkt.systems/prattle/schema"
)

// LineFlags control which parts of a buffer line are drawn.
type LineFlags uint8

const (
	// NoSender hides the sender prefix.
	NoSender LineFlags = 1 << iota
	// NoDate hides the timestamp and show-char prefix.
	NoDate
	// NoEOL joins the line with the next one on the same row.
	NoEOL
	// NoSenderColour draws the sender in the plain text style.
	NoSenderColour
	// NoDateColour draws the timestamp in the plain text style.
	NoDateColour
)

// Has reports whether every bit of flag is set.
func (f LineFlags) Has(flag LineFlags) bool {
	return f&flag == flag
}

// BufferLine is one stored unit of window history.
type BufferLine struct {
	ShowChar rune
	Time     time.Time
	Flags    LineFlags
	Theme    schema.ThemeItem
	Sender   string
	Text     string
}

const defaultMaxLines = schema.DefaultBufferMaxLines

// Buffer is a bounded scrollback ring. Lines are kept in insertion order and
// the oldest line is evicted once the buffer is full.
type Buffer struct {
	lines    []BufferLine
	head     int
	maxLines int
}

// NewBuffer returns an empty buffer. A non-positive maxLines selects the default.
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	return &Buffer{maxLines: maxLines}
}

// Append adds line at the tail and reports whether the oldest line was evicted.
func (b *Buffer) Append(line BufferLine) bool {
	if b.maxLines <= 0 {
		b.maxLines = defaultMaxLines
	}
	if len(b.lines) < b.maxLines {
		b.lines = append(b.lines, line)
		return false
	}
	b.lines[b.head] = line
	b.head = (b.head + 1) % b.maxLines
	return true
}

// LineCount returns the number of stored lines.
func (b *Buffer) LineCount() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// Capacity returns the maximum number of stored lines.
func (b *Buffer) Capacity() int {
	if b == nil {
		return 0
	}
	return b.maxLines
}

// LineAt returns the line at index i, where 0 is the oldest stored line.
func (b *Buffer) LineAt(i int) (BufferLine, error) {
	count := b.LineCount()
	if i < 0 || i >= count {
		return BufferLine{}, fmt.Errorf("%w: index %d, count %d", schema.ErrLineOutOfRange, i, count)
	}
	return b.lines[(b.head+i)%len(b.lines)], nil
}

// slice copies lines [start, end) clamped to the stored range.
func (b *Buffer) slice(start, end int) []BufferLine {
	count := b.LineCount()
	if start < 0 {
		start = 0
	}
	if end > count {
		end = count
	}
	if start >= end {
		return nil
	}
	out := make([]BufferLine, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, b.lines[(b.head+i)%len(b.lines)])
	}
	return out
}
