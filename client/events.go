package client

import (
	"pkt.systems/prattle/core"
	"pkt.systems/prattle/internal/hub"
	"pkt.systems/prattle/schema"
)

func (c *Client) handleEvent(ev hub.Event) {
	switch ev.Type {
	case hub.EventMessage:
		c.onMessage(ev.Message)
	case hub.EventRoomMessage:
		c.onRoomMessage(ev.Room, ev.Message)
	case hub.EventPrivate:
		c.onPrivate(ev.Message)
	case hub.EventPresence:
		c.onPresence(ev.Presence)
	case hub.EventOccupant:
		c.onOccupant(ev.Room, ev.Occupant, ev.Left)
	case hub.EventRoomConfig:
		if _, w := c.Find(schema.WindowMuc, ev.Room); w != nil {
			w.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeRoomInfo, Text: "Room configuration changed."})
		}
	case hub.EventStanza:
		if _, w := c.Find(schema.WindowXML, "xmlconsole"); w != nil {
			dir, theme := "RECV", schema.ThemeIncoming
			if ev.Outgoing {
				dir, theme = "SENT", schema.ThemeTextMe
			}
			w.SavePrint(core.PrintRequest{ShowChar: '-', Flags: core.NoSender, Theme: theme, Text: dir + ": " + ev.Stanza})
		}
	}
	c.dirty = true
}

// onMessage routes a direct message. A missing chat window is created in
// the background; its history already holds msg, so msg itself is left out
// of the history print and counted as unread.
func (c *Client) onMessage(msg schema.Message) {
	me := c.hub.JID(c.cfg.UserID)
	if msg.From == me {
		return
	}
	peer, err := schema.ParseJID(msg.From)
	if err != nil {
		c.log().Warn("client message dropped", "from", msg.From, "err", err)
		return
	}
	_, w := c.Find(schema.WindowChat, peer.Bare())
	if w == nil {
		chat := c.newChat(peer.Bare(), &msg)
		if _, err := c.Open(chat); err != nil {
			core.PrintError(c.Console(), "Message from "+peer.Bare()+" dropped: "+err.Error())
			return
		}
		w = chat
	}
	w.PrintIncomingMessage(msg.Time, nameOf(msg.From), msg.Body)
	c.alert(w, peer.Bare(), msg.Body)
}

func (c *Client) onRoomMessage(room string, msg schema.Message) {
	_, w := c.Find(schema.WindowMuc, room)
	if w == nil {
		return
	}
	from, err := schema.ParseJID(msg.From)
	if err != nil {
		return
	}
	nick, _ := c.hub.Nick(c.cfg.UserID, room)
	if from.Resource == nick {
		core.PrintOutgoing(w, msg.Time, nick, msg.Body)
		return
	}
	w.PrintIncomingMessage(msg.Time, from.Resource, msg.Body)
	c.alert(w, room, from.Resource+": "+msg.Body)
}

func (c *Client) onPrivate(msg schema.Message) {
	from, err := schema.ParseJID(msg.From)
	if err != nil {
		return
	}
	_, w := c.Find(schema.WindowPrivate, msg.From)
	if w == nil {
		w = core.NewPrivateWindow(msg.From, c.opts)
		if _, err := c.Open(w); err != nil {
			core.PrintError(c.Console(), "Private message from "+msg.From+" dropped: "+err.Error())
			return
		}
	}
	w.PrintIncomingMessage(msg.Time, from.Resource, msg.Body)
	c.alert(w, msg.From, msg.Body)
}

func (c *Client) onPresence(p hub.PresenceUpdate) {
	status := core.StatusString{
		From:         p.JID,
		Show:         p.Show,
		Status:       p.Status,
		LastActivity: p.LastActivity,
		Pre:          "++",
	}
	if !p.Came {
		status.Pre = "--"
		status.Show = schema.PresenceOffline
	}
	c.Console().ShowStatusString(status)
	if _, w := c.Find(schema.WindowChat, p.JID); w != nil {
		w.ShowStatusString(status)
		if chat, ok := w.(*core.ChatWindow); ok {
			if p.Came {
				chat.SetResource("prattle")
			} else {
				chat.ClearResource()
			}
		}
	}
	for slot := 1; slot <= MaxSlots; slot++ {
		if w := c.slots[slot]; w != nil && w.Kind() == schema.WindowChat {
			c.refreshRoster(w)
		}
	}
}

func (c *Client) onOccupant(room string, occ schema.Occupant, left bool) {
	_, w := c.Find(schema.WindowMuc, room)
	if w == nil {
		return
	}
	known := c.roomNicks[room]
	if known == nil {
		known = make(map[string]bool)
		c.roomNicks[room] = known
	}
	switch {
	case left:
		delete(known, occ.Nick)
		w.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeRoomInfo, Text: "<- " + occ.Nick + " has left the room"})
	case !known[occ.Nick]:
		known[occ.Nick] = true
		w.SavePrint(core.PrintRequest{ShowChar: '!', Theme: schema.ThemeRoomInfo, Text: "-> " + occ.Nick + " has joined the room"})
	default:
		w.ShowStatusString(core.StatusString{From: occ.Nick, Show: occ.Presence, Status: occ.Status})
	}
	c.refreshOccupants(room)
}

// refreshRoster rebuilds the roster panel of a chat window.
func (c *Client) refreshRoster(w core.Window) {
	lines := []core.SubLine{{Text: "Roster", Theme: schema.ThemeRosterHeader}}
	for _, contact := range c.hub.Roster(c.cfg.UserID) {
		presence := contact.Presence
		if len(contact.Resources) == 0 {
			presence = schema.PresenceOffline
		}
		lines = append(lines, core.SubLine{Text: contact.DisplayName(), Theme: schema.PresenceTheme(presence)})
	}
	core.SetSubLines(w, lines)
}

// refreshOccupants rebuilds the occupants panel of a room window and
// remembers who is present so later joins can be told from updates.
func (c *Client) refreshOccupants(room string) {
	_, w := c.Find(schema.WindowMuc, room)
	if w == nil {
		return
	}
	occupants, err := c.hub.Occupants(room)
	if err != nil {
		c.log().Warn("client occupants failed", "room", room, "err", err)
		return
	}
	known := make(map[string]bool, len(occupants))
	lines := []core.SubLine{{Text: "Occupants", Theme: schema.ThemeRosterHeader}}
	for _, occ := range occupants {
		known[occ.Nick] = true
		lines = append(lines, core.SubLine{Text: occ.Nick, Theme: schema.PresenceTheme(occ.Presence)})
	}
	c.roomNicks[room] = known
	core.SetSubLines(w, lines)
}

// alert beeps and notifies when w is not in view.
func (c *Client) alert(w core.Window, title, body string) {
	if w == c.Current() && !w.Layout().Paged() {
		return
	}
	if c.prefs.Beep {
		_ = c.screen.Beep()
	}
	if err := c.notifier.Notify(title, body); err != nil {
		c.log().Debug("client notify failed", "err", err)
	}
}
