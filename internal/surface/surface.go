// Package surface defines the cell targets windows render into and the
// screens that put those cells on a terminal.
package surface

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Target is a rectangular grid of cells.
type Target interface {
	Size() (width, height int)
	SetContent(x, y int, mainc rune, comb []rune, style tcell.Style)
}

// Screen is a Target that owns a terminal.
type Screen interface {
	Target
	Init() error
	Fini()
	Clear()
	Show()
	Beep() error
	ShowCursor(x, y int)
	HideCursor()
}

// A tcell screen (terminal, SSH channel or simulation) is used as-is.
var _ Screen = tcell.Screen(nil)

// Region is a clipped sub-rectangle of a parent Target.
type Region struct {
	parent Target
	x      int
	y      int
	width  int
	height int
}

// NewRegion creates a sub-region of parent. Negative sizes are treated as empty.
func NewRegion(parent Target, x, y, width, height int) *Region {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Region{parent: parent, x: x, y: y, width: width, height: height}
}

// Size returns the region dimensions.
func (r *Region) Size() (int, int) {
	return r.width, r.height
}

// SetContent writes a cell relative to the region origin; out of bounds writes are dropped.
func (r *Region) SetContent(x, y int, mainc rune, comb []rune, style tcell.Style) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	r.parent.SetContent(r.x+x, r.y+y, mainc, comb, style)
}

// Fill paints every cell of the target with ch.
func Fill(t Target, ch rune, style tcell.Style) {
	w, h := t.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.SetContent(x, y, ch, nil, style)
		}
	}
}

// FillRow paints one row of the target with spaces.
func FillRow(t Target, row int, style tcell.Style) {
	w, _ := t.Size()
	for x := 0; x < w; x++ {
		t.SetContent(x, row, ' ', nil, style)
	}
}

// DrawText writes text starting at (x, y) without wrapping and returns the
// column after the last cell written. Runes that would straddle the right edge
// are not drawn.
func DrawText(t Target, x, y int, text string, style tcell.Style) int {
	w, _ := t.Size()
	for _, r := range text {
		if r == '\n' || r == '\r' {
			continue
		}
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x+rw > w {
			break
		}
		t.SetContent(x, y, r, nil, style)
		x += rw
	}
	return x
}

// TextWidth returns the display width of text.
func TextWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate cuts text to at most width display columns.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "")
}
