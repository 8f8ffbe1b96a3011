package client

import (
	"context"
	"time"
)

// Size is a terminal size in cells.
type Size struct {
	Width  int
	Height int
}

// Input carries what the terminal produces. Run returns when Keys closes.
type Input struct {
	Keys   <-chan Key
	Resize <-chan Size
}

const blinkInterval = 500 * time.Millisecond

// Run subscribes to the hub and serves the session until the user quits,
// the input ends or ctx is cancelled.
func (c *Client) Run(ctx context.Context, in Input) error {
	if ctx == nil {
		ctx = context.Background()
	}
	events, unsubscribe := c.hub.Subscribe(c.cfg.UserID)
	defer unsubscribe()
	c.plugins.Start()
	defer c.plugins.Stop()
	defer c.savePrefs()
	defer c.shutdown()

	for _, contact := range c.hub.Roster(c.cfg.UserID) {
		c.Console().ShowContact(contact)
	}
	c.log().Info("client session start")
	c.draw()

	ticker := time.NewTicker(blinkInterval)
	defer ticker.Stop()
	keys := in.Keys
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			c.handleKey(k)
		case size, ok := <-in.Resize:
			if ok {
				c.resize(size.Width, size.Height)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			c.handleEvent(ev)
		case fn := <-c.posts:
			fn()
			c.dirty = true
		case <-ticker.C:
			c.blinkOn = !c.blinkOn
			if c.prefs.Flash {
				c.dirty = true
			}
		}
		if c.quit {
			c.log().Info("client session end")
			return nil
		}
		if c.dirty {
			c.draw()
			c.dirty = false
		}
	}
}

// shutdown leaves every joined room and frees the windows.
func (c *Client) shutdown() {
	for slot := MaxSlots; slot >= 2; slot-- {
		if c.slots[slot] != nil {
			_ = c.Close(slot)
		}
	}
}
