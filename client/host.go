package client

import (
	"fmt"
	"time"

	"pkt.systems/prattle/core"
	"pkt.systems/prattle/schema"
)

// ConsShow prints message in the console.
func (c *Client) ConsShow(message string) {
	c.Console().SavePrintln(message)
	c.dirty = true
}

// WinCreate opens a plugin window unless one with tag exists.
func (c *Client) WinCreate(tag string, onInput func(string)) {
	if c.WinExists(tag) {
		return
	}
	if _, err := c.Open(core.NewPluginWindow(tag, c.opts)); err != nil {
		core.PrintError(c.Console(), "Plugin window "+tag+": "+err.Error())
		return
	}
	c.pluginInput[tag] = onInput
}

// WinExists reports whether a plugin window with tag is open.
func (c *Client) WinExists(tag string) bool {
	_, w := c.Find(schema.WindowPlugin, tag)
	return w != nil
}

// WinFocus switches to the plugin window with tag.
func (c *Client) WinFocus(tag string) error {
	slot, w := c.Find(schema.WindowPlugin, tag)
	if w == nil {
		return fmt.Errorf("%w: plugin %s", schema.ErrWindowNotFound, tag)
	}
	return c.Focus(slot)
}

// WinPrint appends message to the plugin window with tag.
func (c *Client) WinPrint(tag, message string) error {
	_, w := c.Find(schema.WindowPlugin, tag)
	if w == nil {
		return fmt.Errorf("%w: plugin %s", schema.ErrWindowNotFound, tag)
	}
	w.SavePrintln(message)
	c.dirty = true
	return nil
}

// Notify raises a desktop notification.
func (c *Client) Notify(title, message string) {
	if err := c.notifier.Notify(title, message); err != nil {
		c.log().Debug("client notify failed", "err", err)
	}
}

// Now returns the client clock.
func (c *Client) Now() time.Time { return c.cfg.Clock() }
