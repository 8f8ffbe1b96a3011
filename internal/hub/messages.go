package hub

import (
	"encoding/xml"
	"fmt"
	"strings"

	"pkt.systems/prattle/schema"
)

// SendMessage delivers a direct message from userID to a local user and
// records it in both users' history.
func (h *Hub) SendMessage(userID schema.UserID, to, body string) (schema.Message, error) {
	target, err := h.localUser(to)
	if err != nil {
		return schema.Message{}, err
	}
	msg := schema.Message{From: h.JID(userID), To: h.JID(target), Body: body, Time: h.now()}
	if err := h.history.Append(userID, msg.To, msg); err != nil {
		h.log.With("user", userID).Warn("hub history append failed", "err", err)
	}
	if target != userID {
		if err := h.history.Append(target, msg.From, msg); err != nil {
			h.log.With("user", target).Warn("hub history append failed", "err", err)
		}
	}
	h.log.With("user", userID).Debug("hub send", "to", msg.To)
	h.trace(userID, true, messageStanza(msg, "chat"))
	h.publish(target, Event{Type: EventMessage, Message: msg})
	h.trace(target, false, messageStanza(msg, "chat"))
	if target == EchoUser && userID != EchoUser {
		h.echo(userID, body)
	}
	return msg, nil
}

func (h *Hub) echo(userID schema.UserID, body string) {
	reply := schema.Message{From: h.JID(EchoUser), To: h.JID(userID), Body: body, Time: h.now()}
	if err := h.history.Append(userID, reply.From, reply); err != nil {
		h.log.With("user", userID).Warn("hub history append failed", "err", err)
	}
	h.publish(userID, Event{Type: EventMessage, Message: reply})
	h.trace(userID, false, messageStanza(reply, "chat"))
}

// SendRoom delivers body to every occupant of the room, sender included.
func (h *Hub) SendRoom(userID schema.UserID, roomJID, body string) (schema.Message, error) {
	nick, err := h.Nick(userID, roomJID)
	if err != nil {
		return schema.Message{}, err
	}
	msg := schema.Message{From: roomJID + "/" + nick, To: roomJID, Body: body, Time: h.now()}
	h.log.With("user", userID).Debug("hub room send", "room", roomJID)
	h.trace(userID, true, messageStanza(msg, "groupchat"))
	h.publishRoom(roomJID, Event{Type: EventRoomMessage, Room: roomJID, Message: msg}, "")
	return msg, nil
}

// SendPrivate delivers body from the sender's room nick to another occupant.
func (h *Hub) SendPrivate(userID schema.UserID, fullJID, body string) (schema.Message, error) {
	jid, err := schema.ParseJID(fullJID)
	if err != nil {
		return schema.Message{}, err
	}
	if jid.Resource == "" {
		return schema.Message{}, fmt.Errorf("%w: private messages need room/nick", schema.ErrInvalidJID)
	}
	roomJID := jid.Bare()
	nick, err := h.Nick(userID, roomJID)
	if err != nil {
		return schema.Message{}, err
	}
	h.mu.Lock()
	var target schema.UserID
	if r := h.rooms[roomJID]; r != nil {
		if m := r.members[jid.Resource]; m != nil {
			target = m.user
		}
	}
	h.mu.Unlock()
	if target == "" {
		return schema.Message{}, fmt.Errorf("%w: %s", schema.ErrOccupantNotFound, jid.Resource)
	}
	msg := schema.Message{From: roomJID + "/" + nick, To: fullJID, Body: body, Time: h.now()}
	h.log.With("user", userID).Debug("hub private send", "room", roomJID)
	h.trace(userID, true, messageStanza(msg, "chat"))
	h.publish(target, Event{Type: EventPrivate, Room: roomJID, Message: msg})
	h.trace(target, false, messageStanza(msg, "chat"))
	return msg, nil
}

// trace publishes a protocol line for the user's XML console.
func (h *Hub) trace(userID schema.UserID, outgoing bool, stanza string) {
	h.publish(userID, Event{Type: EventStanza, Stanza: stanza, Outgoing: outgoing})
}

func messageStanza(msg schema.Message, kind string) string {
	return fmt.Sprintf("<message from='%s' to='%s' type='%s'><body>%s</body></message>",
		escape(msg.From), escape(msg.To), kind, escape(msg.Body))
}

func escape(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}
