package core

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"pkt.systems/prattle/internal/surface"
	"pkt.systems/prattle/schema"
)

type glyph struct {
	r     rune
	width int
	style tcell.Style
}

type span struct {
	text  string
	style tcell.Style
}

func styleFor(styler Styler, item schema.ThemeItem) tcell.Style {
	if styler == nil {
		return tcell.StyleDefault
	}
	return styler.Style(item)
}

// PrintlineNoWrap writes text on one row of target, truncated to its width.
// The rest of the row is cleared with style.
func PrintlineNoWrap(target surface.Target, row int, text string, style tcell.Style) {
	if target == nil {
		return
	}
	w, h := target.Size()
	if row < 0 || row >= h || w <= 0 {
		return
	}
	surface.FillRow(target, row, style)
	surface.DrawText(target, 0, row, text, style)
}

// renderHistory draws the lines ending at end into target, newest at the
// bottom. Fewer rows than the target height are drawn from the top.
func renderHistory(target surface.Target, view View, buf *Buffer, end int) {
	w, h := target.Size()
	if w <= 0 || h <= 0 {
		return
	}
	surface.Fill(target, ' ', styleFor(view.Styler, schema.ThemeText))

	var rows [][]glyph
	idx := end
	for idx > 0 && len(rows) < h {
		start := groupStart(buf, idx)
		group := buf.slice(start, idx)
		rows = append(wrapSpans(lineSpans(group, view), w), rows...)
		idx = start
	}
	if len(rows) > h {
		rows = rows[len(rows)-h:]
	}
	for y, row := range rows {
		x := 0
		for _, g := range row {
			target.SetContent(x, y, g.r, nil, g.style)
			x += g.width
		}
	}
}

// groupStart returns the first index of the row group ending just before end.
// A group is a run of lines joined by NoEOL.
func groupStart(buf *Buffer, end int) int {
	start := end - 1
	for start > 0 {
		prev, err := buf.LineAt(start - 1)
		if err != nil || !prev.Flags.Has(NoEOL) {
			break
		}
		start--
	}
	return start
}

func lineSpans(lines []BufferLine, view View) []span {
	var spans []span
	for _, line := range lines {
		spans = append(spans, formatLine(line, view)...)
	}
	return spans
}

func formatLine(line BufferLine, view View) []span {
	var spans []span
	textStyle := styleFor(view.Styler, line.Theme)
	plain := styleFor(view.Styler, schema.ThemeText)

	if !line.Flags.Has(NoDate) {
		format := view.TimeFormat
		if format == "" {
			format = schema.DefaultTimeFormat
		}
		prefix := line.Time.Format(format) + " "
		if line.ShowChar != 0 {
			prefix += string(line.ShowChar) + " "
		}
		style := styleFor(view.Styler, schema.ThemeTime)
		if line.Flags.Has(NoDateColour) {
			style = plain
		}
		spans = append(spans, span{text: prefix, style: style})
	}

	text := line.Text
	if line.Sender != "" && !line.Flags.Has(NoSender) {
		style := styleFor(view.Styler, schema.ThemeThem)
		if line.Theme == schema.ThemeTextMe {
			style = styleFor(view.Styler, schema.ThemeMe)
		}
		if line.Flags.Has(NoSenderColour) {
			style = plain
		}
		if rest, ok := strings.CutPrefix(text, "/me "); ok {
			spans = append(spans, span{text: "*" + line.Sender + " ", style: style})
			text = rest
		} else {
			spans = append(spans, span{text: line.Sender + ": ", style: style})
		}
	}
	spans = append(spans, span{text: text, style: textStyle})
	return spans
}

// wrapSpans breaks spans into rows of at most width cells. Embedded newlines
// start a new row; zero-width runes are dropped.
func wrapSpans(spans []span, width int) [][]glyph {
	rows := [][]glyph{nil}
	col := 0
	for _, sp := range spans {
		for _, r := range sp.text {
			if r == '\n' {
				rows = append(rows, nil)
				col = 0
				continue
			}
			rw := runewidth.RuneWidth(r)
			if rw == 0 {
				continue
			}
			if rw > width {
				continue
			}
			if col+rw > width {
				rows = append(rows, nil)
				col = 0
			}
			last := len(rows) - 1
			rows[last] = append(rows[last], glyph{r: r, width: rw, style: sp.style})
			col += rw
		}
	}
	return rows
}
