package client

import (
	"strconv"

	"github.com/gdamore/tcell/v2"

	"pkt.systems/prattle/core"
	"pkt.systems/prattle/internal/surface"
	"pkt.systems/prattle/schema"
)

// Screen rows: the title bar on top, then the current window, the status
// bar and the input line.
const (
	titleRow    = 0
	chromeRows  = 3
	inputPrompt = "> "
)

func (c *Client) mainRegion() *surface.Region {
	w, h := c.screen.Size()
	return surface.NewRegion(c.screen, 0, titleRow+1, w, max(h-chromeRows, 0))
}

// attachCurrent binds the current window to the main region with the panel
// width for its kind.
func (c *Client) attachCurrent() {
	w := c.slots[c.current]
	if w == nil {
		return
	}
	w.Attach(core.View{
		Target:     c.mainRegion(),
		Styler:     c.theme,
		SubCols:    c.metrics.SubCols(w.Kind()),
		TimeFormat: c.cfg.TimeFormat,
	})
}

func (c *Client) resize(width, height int) {
	c.metrics.Resize(width, height)
	c.screen.Clear()
	c.attachCurrent()
	c.dirty = true
	c.log().Debug("client resize", "width", width, "height", height)
}

// draw paints the bars and the input line and flushes the screen. The
// window area is painted by the attached layout as lines arrive.
func (c *Client) draw() {
	width, height := c.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}
	c.drawTitle(width)
	if height >= chromeRows {
		c.drawStatus(width, height-2)
	}
	c.drawInput(width, height-1)
	c.screen.Show()
}

func (c *Client) drawTitle(width int) {
	w := c.slots[c.current]
	base := c.theme.Style(schema.ThemeTitleText)
	surface.FillRow(c.screen, titleRow, base)
	x := surface.DrawText(c.screen, 1, titleRow, w.Title(), base)
	bracket := c.theme.Style(schema.ThemeTitleBrackets)
	marker := func(text string, style tcell.Style) {
		x = surface.DrawText(c.screen, x+1, titleRow, "[", bracket)
		x = surface.DrawText(c.screen, x, titleRow, text, style)
		x = surface.DrawText(c.screen, x, titleRow, "]", bracket)
	}
	switch {
	case core.IsTrusted(w):
		marker("trusted", c.theme.Style(schema.ThemeOTRTrusted))
	case core.IsOTR(w):
		marker("untrusted", c.theme.Style(schema.ThemeOTRUntrusted))
	}
	if core.HasModifiedForm(w) {
		x = surface.DrawText(c.screen, x, titleRow, " *", base)
	}
	if w.Layout().Paged() {
		marker("paged", base)
	}
}

func (c *Client) drawStatus(width, row int) {
	base := c.theme.Style(schema.ThemeStatusText)
	bracket := c.theme.Style(schema.ThemeStatusBrackets)
	surface.FillRow(c.screen, row, base)
	x := 1
	item := func(text string, style tcell.Style) {
		x = surface.DrawText(c.screen, x, row, "[", bracket)
		x = surface.DrawText(c.screen, x, row, text, style)
		x = surface.DrawText(c.screen, x, row, "]", bracket) + 1
	}
	item(c.cfg.Clock().Format("15:04"), base)
	item(c.hub.JID(c.cfg.UserID), base)
	for slot := 1; slot <= MaxSlots; slot++ {
		w := c.slots[slot]
		if w == nil {
			continue
		}
		label := strconv.Itoa(slot % MaxSlots)
		style := base
		switch {
		case slot == c.current:
			style = c.theme.Style(schema.ThemeStatusActive)
		case w.Unread() > 0:
			label += ":" + strconv.FormatUint(uint64(w.Unread()), 10)
			if !c.prefs.Flash || c.blinkOn {
				style = c.theme.Style(schema.ThemeStatusNew)
			}
		}
		item(label, style)
	}
}

func (c *Client) drawInput(width, row int) {
	style := c.theme.Style(schema.ThemeInputText)
	core.PrintlineNoWrap(c.screen, row, inputPrompt, style)
	text, col := c.editor.visible(width - len(inputPrompt))
	surface.DrawText(c.screen, len(inputPrompt), row, text, style)
	c.screen.ShowCursor(len(inputPrompt)+col, row)
}
