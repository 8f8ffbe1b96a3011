package core

import (
	"strconv"
	"testing"

	"pkt.systems/prattle/schema"
)

func fillLayout(l Layout, n int) {
	for i := 0; i < n; i++ {
		l.AppendAndAdvance(textLine("line " + strconv.Itoa(i)))
	}
}

func TestLayoutLiveAppendFollowsTail(t *testing.T) {
	l := NewSimpleLayout(100)
	for i := 1; i <= 3; i++ {
		if shown := l.AppendAndAdvance(textLine("x")); !shown {
			t.Fatalf("expected live append to be shown")
		}
		if l.ScrollY() != i {
			t.Fatalf("expected scrollY %d, got %d", i, l.ScrollY())
		}
	}
	if l.Paged() {
		t.Fatalf("expected live layout")
	}
}

func TestLayoutPagedAppendKeepsAnchor(t *testing.T) {
	l := NewSplitLayout(100)
	fillLayout(l, 10)
	l.PageTo(5)
	if !l.Paged() || l.ScrollY() != 5 {
		t.Fatalf("expected paged at 5, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
	for i := 0; i < 2; i++ {
		if shown := l.AppendAndAdvance(textLine("late")); shown {
			t.Fatalf("expected paged append to be hidden")
		}
	}
	if l.ScrollY() != 5 {
		t.Fatalf("expected scrollY unchanged at 5, got %d", l.ScrollY())
	}
	l.MoveToEnd()
	if l.Paged() || l.ScrollY() != 12 {
		t.Fatalf("expected live at 12, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
}

func TestLayoutPageToBounds(t *testing.T) {
	l := NewSimpleLayout(100)
	l.PageTo(0)
	if l.Paged() {
		t.Fatalf("expected empty layout to stay live")
	}
	fillLayout(l, 4)
	l.PageTo(-3)
	if !l.Paged() || l.ScrollY() != 0 {
		t.Fatalf("expected paged at 0, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
	l.PageTo(4)
	if l.Paged() || l.ScrollY() != 4 {
		t.Fatalf("expected offset at tail to go live, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
	l.PageTo(99)
	if l.Paged() || l.ScrollY() != 4 {
		t.Fatalf("expected offset past tail to go live, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
}

func TestLayoutPagedEvictionShiftsAnchor(t *testing.T) {
	l := NewSimpleLayout(5)
	fillLayout(l, 5)
	l.PageTo(3)
	l.AppendAndAdvance(textLine("overflow"))
	if l.ScrollY() != 2 {
		t.Fatalf("expected anchor shifted to 2, got %d", l.ScrollY())
	}
	last, _ := l.Buffer().LineAt(l.ScrollY() - 1)
	if last.Text != "line 2" {
		t.Fatalf("expected anchor to still end at line 2, got %q", last.Text)
	}
	if !l.Paged() || l.ScrollY() >= l.Buffer().LineCount() {
		t.Fatalf("expected paged invariant to hold")
	}
}

func TestLayoutScrollBackStopsAtFullPage(t *testing.T) {
	screen := newSimScreen(t, 20, 4)
	l := NewSimpleLayout(100)
	l.Attach(testView(screen))
	fillLayout(l, 10)
	if l.PageSize() != 4 {
		t.Fatalf("expected page size 4, got %d", l.PageSize())
	}
	l.ScrollBack(4)
	if l.ScrollY() != 6 || !l.Paged() {
		t.Fatalf("expected paged at 6, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
	l.ScrollBack(100)
	if l.ScrollY() != 4 {
		t.Fatalf("expected scroll back to stop at a full page (4), got %d", l.ScrollY())
	}
	l.ScrollForward(2)
	if l.ScrollY() != 6 {
		t.Fatalf("expected scrollY 6, got %d", l.ScrollY())
	}
	l.ScrollForward(10)
	if l.Paged() || l.ScrollY() != 10 {
		t.Fatalf("expected scroll forward past tail to go live, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
}

func TestLayoutScrollBackWithShortHistoryStaysLive(t *testing.T) {
	screen := newSimScreen(t, 20, 4)
	l := NewSimpleLayout(100)
	l.Attach(testView(screen))
	fillLayout(l, 3)
	l.ScrollBack(2)
	if l.Paged() || l.ScrollY() != 3 {
		t.Fatalf("expected short history to stay live, got paged=%v scrollY=%d", l.Paged(), l.ScrollY())
	}
}

func TestLayoutDetachedPageSizeDefault(t *testing.T) {
	l := NewSimpleLayout(10)
	if l.PageSize() != defaultPageSize {
		t.Fatalf("expected default page size, got %d", l.PageSize())
	}
}

func TestSimpleLayoutSubRegionUnsupported(t *testing.T) {
	l := NewSimpleLayout(10)
	fillLayout(l, 3)
	if l.ShowSubRegion() || l.HideSubRegion() || l.SubRegionVisible() {
		t.Fatalf("expected simple layout to report sub-region as unsupported")
	}
	if l.Kind() != schema.LayoutSimple {
		t.Fatalf("unexpected kind %v", l.Kind())
	}
	if _, ok := asSplit(l); ok {
		t.Fatalf("expected simple layout not to narrow to split")
	}
}

func TestSplitSubRegionToggleKeepsState(t *testing.T) {
	l := NewSplitLayout(10)
	l.SetSubLines([]SubLine{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	l.ScrollSub(2)
	if !l.HideSubRegion() || l.SubRegionVisible() {
		t.Fatalf("expected sub-region hidden")
	}
	if !l.ShowSubRegion() || !l.ShowSubRegion() {
		t.Fatalf("expected show to be supported")
	}
	if !l.SubRegionVisible() {
		t.Fatalf("expected sub-region visible")
	}
	if l.SubScrollY() != 2 || len(l.SubLines()) != 3 {
		t.Fatalf("expected sub-region state kept, got scroll %d lines %d", l.SubScrollY(), len(l.SubLines()))
	}
}

func TestSplitScrollSubClamps(t *testing.T) {
	l := NewSplitLayout(10)
	l.ScrollSub(3)
	if l.SubScrollY() != 0 {
		t.Fatalf("expected empty sub-region to stay at 0, got %d", l.SubScrollY())
	}
	l.SetSubLines([]SubLine{{Text: "a"}, {Text: "b"}})
	l.ScrollSub(9)
	if l.SubScrollY() != 1 {
		t.Fatalf("expected clamp to last line, got %d", l.SubScrollY())
	}
	l.ScrollSub(-9)
	if l.SubScrollY() != 0 {
		t.Fatalf("expected clamp to 0, got %d", l.SubScrollY())
	}
	l.ScrollSub(1)
	l.SetSubLines([]SubLine{{Text: "only"}})
	if l.SubScrollY() != 0 {
		t.Fatalf("expected shrink to clamp sub scroll, got %d", l.SubScrollY())
	}
}

func TestAsSplitSentinelMismatchIsFatal(t *testing.T) {
	ie := expectInternalError(t, func() {
		asSplit(&SplitLayout{})
	})
	if ie.Op != "narrow layout" {
		t.Fatalf("unexpected op %q", ie.Op)
	}
	expectInternalError(t, func() {
		var forged SplitLayout
		forged.ShowSubRegion()
	})
}

func TestLayoutReleaseClearsState(t *testing.T) {
	l := NewSplitLayout(10)
	fillLayout(l, 3)
	l.SetSubLines([]SubLine{{Text: "a"}})
	l.release()
	if l.Buffer() != nil || l.ScrollY() != 0 || l.Attached() {
		t.Fatalf("expected released layout to drop its buffer")
	}
	if len(l.SubLines()) != 0 || l.SubRegionVisible() {
		t.Fatalf("expected released split layout to drop its sub-region")
	}
}
