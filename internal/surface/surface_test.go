package surface

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newSimScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init simulation screen: %v", err)
	}
	screen.SetSize(width, height)
	t.Cleanup(screen.Fini)
	return screen
}

func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestRegionClipsAndOffsets(t *testing.T) {
	screen := newSimScreen(t, 10, 4)
	region := NewRegion(screen, 2, 1, 3, 2)
	DrawText(region, 0, 0, "abcdef", tcell.StyleDefault)
	region.SetContent(0, 5, 'z', nil, tcell.StyleDefault)

	if got := runeAt(screen, 2, 1); got != 'a' {
		t.Fatalf("expected a at (2,1), got %q", got)
	}
	if got := runeAt(screen, 4, 1); got != 'c' {
		t.Fatalf("expected c at (4,1), got %q", got)
	}
	if got := runeAt(screen, 5, 1); got != ' ' && got != 0 {
		t.Fatalf("expected clipped cell at (5,1), got %q", got)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			if runeAt(screen, x, y) == 'z' {
				t.Fatalf("expected out of bounds write to be dropped")
			}
		}
	}
	if w, h := region.Size(); w != 3 || h != 2 {
		t.Fatalf("expected 3x2 region, got %dx%d", w, h)
	}
}

func TestDrawTextStopsBeforeWideRuneAtEdge(t *testing.T) {
	screen := newSimScreen(t, 3, 1)
	next := DrawText(screen, 0, 0, "a世b", tcell.StyleDefault)
	if next != 3 {
		t.Fatalf("expected column 3, got %d", next)
	}
	next = DrawText(screen, 2, 0, "世", tcell.StyleDefault)
	if next != 2 {
		t.Fatalf("expected wide rune to be skipped at the edge, got column %d", next)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 3); got != "hel" {
		t.Fatalf("expected hel, got %q", got)
	}
	if got := Truncate("hi", 3); got != "hi" {
		t.Fatalf("expected hi, got %q", got)
	}
	if got := Truncate("hi", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
