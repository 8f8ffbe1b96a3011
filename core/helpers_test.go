package core

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"pkt.systems/prattle/schema"
)

// paletteStyler gives every theme item its own palette colour so tests can
// tell which item a cell was drawn with.
type paletteStyler struct{}

func (paletteStyler) Style(item schema.ThemeItem) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.PaletteColor(int(item) + 1))
}

func itemColor(item schema.ThemeItem) tcell.Color {
	return tcell.PaletteColor(int(item) + 1)
}

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

func rowText(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func cellColor(screen tcell.SimulationScreen, x, y int) tcell.Color {
	_, _, style, _ := screen.GetContent(x, y)
	fg, _, _ := style.Decompose()
	return fg
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func testView(screen tcell.SimulationScreen) View {
	return View{Target: screen, Styler: paletteStyler{}, TimeFormat: "15:04"}
}

func expectInternalError(t *testing.T, fn func()) *InternalError {
	t.Helper()
	var got *InternalError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ie, ok := r.(*InternalError)
			if !ok {
				t.Fatalf("expected *InternalError panic, got %T: %v", r, r)
			}
			got = ie
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("expected panic with *InternalError")
	}
	return got
}

func bufferTexts(t *testing.T, buf *Buffer) []string {
	t.Helper()
	out := make([]string, 0, buf.LineCount())
	for i := 0; i < buf.LineCount(); i++ {
		line, err := buf.LineAt(i)
		if err != nil {
			t.Fatalf("LineAt(%d): %v", i, err)
		}
		out = append(out, line.Text)
	}
	return out
}
