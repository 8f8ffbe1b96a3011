package client

import (
	"slices"
	"strings"

	"pkt.systems/prattle/core"
	"pkt.systems/prattle/schema"
)

const maxInputHistory = 100

// completable commands take a JID as their first argument.
var completable = []string{"/msg ", "/info "}

// handleKey applies one key press and reports whether the session should end.
func (c *Client) handleKey(k Key) bool {
	c.dirty = true
	if slot, ok := altSlot(k); ok {
		if err := c.Focus(slot); err != nil {
			c.log().Debug("client focus ignored", "slot", slot)
		}
		return false
	}
	if k.Kind != KeyTab {
		c.completeStale = true
	}
	cur := c.Current()
	switch k.Kind {
	case KeyCtrlC:
		c.Quit()
	case KeyCtrlD:
		if c.editor.Len() == 0 {
			c.Quit()
			break
		}
		c.editor.Delete()
	case KeyCtrlL:
		c.screen.Clear()
		c.attachCurrent()
	case KeyEnter:
		line := c.editor.String()
		c.editor.Clear()
		c.submit(line)
	case KeyRune:
		if k.Alt {
			break
		}
		c.editor.InsertRune(k.Rune)
	case KeyBackspace:
		c.editor.Backspace()
	case KeyDelete:
		c.editor.Delete()
	case KeyLeft:
		if k.Alt {
			c.Prev()
			break
		}
		c.editor.MoveLeft()
	case KeyRight:
		if k.Alt {
			c.Next()
			break
		}
		c.editor.MoveRight()
	case KeyHome, KeyCtrlA:
		c.editor.MoveStart()
	case KeyEnd:
		if c.editor.Len() == 0 {
			cur.MoveToEnd()
			cur.MarkRead()
			break
		}
		c.editor.MoveEnd()
	case KeyCtrlE:
		c.editor.MoveEnd()
	case KeyCtrlW:
		c.editor.DeleteWordBackward()
	case KeyCtrlU:
		c.editor.KillLineStart()
	case KeyCtrlK:
		c.editor.KillLineEnd()
	case KeyUp:
		c.historyUp()
	case KeyDown:
		c.historyDown()
	case KeyTab:
		c.complete()
	case KeyPageUp:
		if k.Alt {
			core.ScrollSub(cur, -c.subPage())
			break
		}
		cur.ScrollBack(cur.Layout().PageSize())
	case KeyPageDown:
		if k.Alt {
			core.ScrollSub(cur, c.subPage())
			break
		}
		cur.ScrollForward(cur.Layout().PageSize())
		if !cur.Layout().Paged() {
			cur.MarkRead()
		}
	}
	return c.quit
}

func (c *Client) subPage() int {
	_, h := c.mainRegion().Size()
	return max(h, 1)
}

// submit runs a command or sends plain text. Plugin windows receive their
// own plain input.
func (c *Client) submit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	c.saveHistoryEntry(line)
	handled, err := c.handler.Handle(c.ctx, c, line)
	if !handled {
		cur := c.Current()
		if cur.Kind() == schema.WindowPlugin {
			if onInput := c.pluginInput[cur.Subject()]; onInput != nil {
				onInput(line)
			}
			return
		}
		err = c.handler.Say(c.ctx, c, line)
	}
	if err != nil {
		core.PrintError(c.Current(), err.Error())
	}
}

func (c *Client) saveHistoryEntry(line string) {
	c.historyIdx = -1
	c.draft = ""
	if n := len(c.history); n > 0 && c.history[n-1] == line {
		return
	}
	c.history = append(c.history, line)
	if len(c.history) > maxInputHistory {
		c.history = slices.Delete(c.history, 0, len(c.history)-maxInputHistory)
	}
}

func (c *Client) historyUp() {
	if len(c.history) == 0 {
		return
	}
	if c.historyIdx < 0 {
		c.draft = c.editor.String()
		c.historyIdx = len(c.history)
	}
	if c.historyIdx == 0 {
		return
	}
	c.historyIdx--
	c.editor.SetString(c.history[c.historyIdx])
}

func (c *Client) historyDown() {
	if c.historyIdx < 0 {
		return
	}
	c.historyIdx++
	if c.historyIdx >= len(c.history) {
		c.historyIdx = -1
		c.editor.SetString(c.draft)
		return
	}
	c.editor.SetString(c.history[c.historyIdx])
}

// complete cycles JID completions for the argument of /msg and /info.
func (c *Client) complete() {
	input := c.editor.String()
	var cmd string
	for _, prefix := range completable {
		if strings.HasPrefix(input, prefix) {
			cmd = prefix
		}
	}
	if cmd == "" || strings.ContainsAny(strings.TrimSpace(input[len(cmd):]), " \t") {
		return
	}
	if c.completeStale {
		candidates := slices.Clone(c.prefs.Recent)
		for _, contact := range c.hub.Roster(c.cfg.UserID) {
			candidates = append(candidates, contact.JID)
		}
		c.completer.SetItems(candidates)
		c.completeStale = false
	}
	if next, ok := c.completer.Complete(input[len(cmd):]); ok {
		c.editor.SetString(cmd + next)
	}
}
