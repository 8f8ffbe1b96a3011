package core

import (
	"github.com/gdamore/tcell/v2"

	"pkt.systems/prattle/internal/surface"
	"pkt.systems/prattle/schema"
)

// Styler resolves theme items to terminal styles.
type Styler interface {
	Style(item schema.ThemeItem) tcell.Style
}

// View binds a layout to the area it renders into.
type View struct {
	Target surface.Target
	Styler Styler
	// SubCols is the width of a split layout's side panel; zero hides it.
	SubCols    int
	TimeFormat string
}

const defaultPageSize = 10

// Layout is the on-screen arrangement of a window's history. The only
// implementations are *SimpleLayout and *SplitLayout.
type Layout interface {
	Kind() schema.LayoutKind
	Buffer() *Buffer
	ScrollY() int
	Paged() bool
	AppendAndAdvance(line BufferLine) bool
	PageTo(offset int)
	ScrollBack(n int)
	ScrollForward(n int)
	PageSize() int
	MoveToEnd()
	ShowSubRegion() bool
	HideSubRegion() bool
	SubRegionVisible() bool
	Attach(view View)
	Detach()
	Attached() bool
	Redraw()

	state() *layoutState
	release()
}

// layoutState is shared by both layouts. scrollY is the exclusive end of the
// visible slice: equal to the line count while live, below it while paged.
type layoutState struct {
	buffer   *Buffer
	scrollY  int
	paged    bool
	view     View
	attached bool
	released bool
	draw     func()
}

func (s *layoutState) state() *layoutState { return s }

// Buffer returns the layout's scrollback.
func (s *layoutState) Buffer() *Buffer { return s.buffer }

// ScrollY returns the end of the visible slice.
func (s *layoutState) ScrollY() int { return s.scrollY }

// Paged reports whether the view is pinned behind the live tail.
func (s *layoutState) Paged() bool { return s.paged }

// AppendAndAdvance appends line and follows the tail unless the layout is
// paged. It reports whether the line became visible.
func (s *layoutState) AppendAndAdvance(line BufferLine) bool {
	evicted := s.buffer.Append(line)
	if s.paged {
		if evicted && s.scrollY > 0 {
			s.scrollY--
		}
		return false
	}
	s.scrollY = s.buffer.LineCount()
	s.redraw()
	return true
}

// PageTo pins the view so the visible slice ends at offset. An offset at or
// past the tail returns to live mode.
func (s *layoutState) PageTo(offset int) {
	if offset >= s.buffer.LineCount() {
		s.MoveToEnd()
		return
	}
	if offset < 0 {
		offset = 0
	}
	s.paged = true
	s.scrollY = offset
	s.redraw()
}

// ScrollBack moves the view n lines towards older history, stopping once a
// full page is visible at the top.
func (s *layoutState) ScrollBack(n int) {
	if n <= 0 {
		return
	}
	target := s.scrollY - n
	floor := min(s.PageSize(), s.buffer.LineCount())
	if target < floor {
		target = min(floor, s.scrollY)
	}
	s.PageTo(target)
}

// ScrollForward moves the view n lines towards the tail.
func (s *layoutState) ScrollForward(n int) {
	if n <= 0 || !s.paged {
		return
	}
	s.PageTo(s.scrollY + n)
}

// PageSize returns the number of rows in the attached view.
func (s *layoutState) PageSize() int {
	if !s.attached || s.view.Target == nil {
		return defaultPageSize
	}
	_, h := s.view.Target.Size()
	if h <= 0 {
		return defaultPageSize
	}
	return h
}

// MoveToEnd returns the layout to live mode at the tail.
func (s *layoutState) MoveToEnd() {
	s.paged = false
	s.scrollY = s.buffer.LineCount()
	s.redraw()
}

// ShowSubRegion is unsupported on layouts without a sub-region.
func (s *layoutState) ShowSubRegion() bool { return false }

// HideSubRegion is unsupported on layouts without a sub-region.
func (s *layoutState) HideSubRegion() bool { return false }

// SubRegionVisible reports false for layouts without a sub-region.
func (s *layoutState) SubRegionVisible() bool { return false }

// Attach binds the layout to a render target and draws it.
func (s *layoutState) Attach(view View) {
	if view.TimeFormat == "" {
		view.TimeFormat = schema.DefaultTimeFormat
	}
	s.view = view
	s.attached = view.Target != nil
	s.redraw()
}

// Detach unbinds the render target. Later redraws are deferred to the next Attach.
func (s *layoutState) Detach() {
	s.view = View{}
	s.attached = false
}

// Attached reports whether the layout has a render target.
func (s *layoutState) Attached() bool { return s.attached }

func (s *layoutState) redraw() {
	if s.draw != nil {
		s.draw()
	}
}

func (s *layoutState) release() {
	s.Detach()
	s.buffer = nil
	s.scrollY = 0
	s.paged = false
	s.released = true
	s.draw = nil
}

// SimpleLayout is a single full-size scroll region.
type SimpleLayout struct {
	layoutState
}

// NewSimpleLayout creates a layout over a buffer holding up to maxLines lines.
func NewSimpleLayout(maxLines int) *SimpleLayout {
	l := &SimpleLayout{layoutState: layoutState{buffer: NewBuffer(maxLines)}}
	l.draw = l.Redraw
	return l
}

// Kind returns LayoutSimple.
func (l *SimpleLayout) Kind() schema.LayoutKind { return schema.LayoutSimple }

// Redraw renders the visible slice into the attached target.
func (l *SimpleLayout) Redraw() {
	if !l.attached || l.released {
		return
	}
	renderHistory(l.view.Target, l.view, l.buffer, l.scrollY)
}

// SplitMemcheck is the sentinel every live SplitLayout carries.
const SplitMemcheck = 1234567

// SubLine is one row of a split layout's sub-region.
type SubLine struct {
	Text  string
	Theme schema.ThemeItem
}

// SplitLayout is a scroll region with a secondary side panel that has its
// own content and scroll position.
type SplitLayout struct {
	layoutState
	sub        []SubLine
	subScrollY int
	subVisible bool
	memcheck   uint64
}

// NewSplitLayout creates a split layout with a visible, empty sub-region.
func NewSplitLayout(maxLines int) *SplitLayout {
	l := &SplitLayout{
		layoutState: layoutState{buffer: NewBuffer(maxLines)},
		subVisible:  true,
		memcheck:    SplitMemcheck,
	}
	l.draw = l.Redraw
	return l
}

// asSplit narrows l to a split layout. Layouts without a sub-region report
// false; a split layout failing its sentinel check is fatal.
func asSplit(l Layout) (*SplitLayout, bool) {
	split, ok := l.(*SplitLayout)
	if !ok {
		return nil, false
	}
	split.check("narrow layout")
	return split, true
}

func (l *SplitLayout) check(op string) {
	if l == nil || l.memcheck != SplitMemcheck {
		fatal(op, "split layout sentinel mismatch")
	}
}

// Kind returns LayoutSplit.
func (l *SplitLayout) Kind() schema.LayoutKind { return schema.LayoutSplit }

// ShowSubRegion makes the sub-region visible; its content and position are kept.
func (l *SplitLayout) ShowSubRegion() bool {
	l.check("show sub-region")
	if !l.subVisible {
		l.subVisible = true
		l.Redraw()
	}
	return true
}

// HideSubRegion hides the sub-region without discarding it.
func (l *SplitLayout) HideSubRegion() bool {
	l.check("hide sub-region")
	if l.subVisible {
		l.subVisible = false
		l.Redraw()
	}
	return true
}

// SubRegionVisible reports whether the sub-region is shown.
func (l *SplitLayout) SubRegionVisible() bool {
	l.check("query sub-region")
	return l.subVisible
}

// SetSubLines replaces the sub-region content.
func (l *SplitLayout) SetSubLines(lines []SubLine) {
	l.check("set sub-region")
	l.sub = append(l.sub[:0], lines...)
	if l.subScrollY > len(l.sub)-1 {
		l.subScrollY = max(len(l.sub)-1, 0)
	}
	l.Redraw()
}

// SubLines returns a copy of the sub-region content.
func (l *SplitLayout) SubLines() []SubLine {
	l.check("read sub-region")
	return append([]SubLine(nil), l.sub...)
}

// SubScrollY returns the index of the first visible sub-region row.
func (l *SplitLayout) SubScrollY() int {
	l.check("read sub-region")
	return l.subScrollY
}

// ScrollSub moves the sub-region by delta rows.
func (l *SplitLayout) ScrollSub(delta int) {
	l.check("scroll sub-region")
	next := l.subScrollY + delta
	if next > len(l.sub)-1 {
		next = len(l.sub) - 1
	}
	if next < 0 {
		next = 0
	}
	l.subScrollY = next
	l.Redraw()
}

// Redraw renders the history region and, when visible and wide enough, the sub-region.
func (l *SplitLayout) Redraw() {
	l.check("redraw")
	if !l.attached || l.released {
		return
	}
	target := l.view.Target
	w, h := target.Size()
	subCols := l.view.SubCols
	if !l.subVisible || subCols <= 0 || subCols >= w-1 {
		renderHistory(target, l.view, l.buffer, l.scrollY)
		return
	}
	mainCols := w - subCols - 1
	renderHistory(surface.NewRegion(target, 0, 0, mainCols, h), l.view, l.buffer, l.scrollY)

	border := styleFor(l.view.Styler, schema.ThemeSplitBorder)
	for y := 0; y < h; y++ {
		target.SetContent(mainCols, y, '│', nil, border)
	}
	panel := surface.NewRegion(target, mainCols+1, 0, subCols, h)
	for row := 0; row < h; row++ {
		idx := l.subScrollY + row
		if idx >= len(l.sub) {
			PrintlineNoWrap(panel, row, "", styleFor(l.view.Styler, schema.ThemeText))
			continue
		}
		line := l.sub[idx]
		PrintlineNoWrap(panel, row, line.Text, styleFor(l.view.Styler, line.Theme))
	}
}

func (l *SplitLayout) release() {
	l.check("release")
	l.layoutState.release()
	l.sub = nil
	l.subScrollY = 0
	l.subVisible = false
}
