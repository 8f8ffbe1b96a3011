package hub

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"pkt.systems/prattle/internal/dataform"
	"pkt.systems/prattle/schema"
)

// Room configuration fields.
const (
	FieldRoomName   = "muc#roomconfig_roomname"
	FieldRoomDesc   = "muc#roomconfig_roomdesc"
	FieldPersistent = "muc#roomconfig_persistentroom"
	FieldMembers    = "muc#roomconfig_membersonly"
	FieldWhois      = "muc#roomconfig_whois"
)

type member struct {
	schema.Occupant
	user schema.UserID
}

type room struct {
	jid     string
	members map[string]*member
	form    *dataform.Form
}

func newRoom(jid string) *room {
	name := jid
	if at := strings.IndexByte(jid, '@'); at > 0 {
		name = jid[:at]
	}
	return &room{
		jid:     jid,
		members: make(map[string]*member),
		form: dataform.New("Configuration for "+jid, []dataform.Field{
			{Var: FieldRoomName, Label: "Room name", Type: dataform.TextSingle, Value: name},
			{Var: FieldRoomDesc, Label: "Description", Type: dataform.TextSingle},
			{Var: FieldPersistent, Label: "Keep the room when empty", Type: dataform.Boolean, Value: "0"},
			{Var: FieldMembers, Label: "Members only", Type: dataform.Boolean, Value: "0"},
			{Var: FieldWhois, Label: "Who may see real JIDs", Type: dataform.ListSingle, Value: "moderators", Options: []string{"moderators", "anyone"}},
		}),
	}
}

func (r *room) occupantByUser(userID schema.UserID) *member {
	for _, m := range r.members {
		if m.user == userID {
			return m
		}
	}
	return nil
}

func (r *room) occupants() []schema.Occupant {
	out := make([]schema.Occupant, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Occupant)
	}
	slices.SortFunc(out, func(a, b schema.Occupant) int { return cmp.Compare(a.Nick, b.Nick) })
	return out
}

func (r *room) persistent() bool {
	value, _ := r.form.Get(FieldPersistent)
	return value == "1"
}

// RoomJID qualifies a bare room name with the conference domain.
func (h *Hub) RoomJID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && !strings.Contains(trimmed, "@") {
		trimmed += "@" + schema.RoomDomain(h.domain)
	}
	jid, err := schema.ParseJID(trimmed)
	if err != nil {
		return "", err
	}
	if jid.Local == "" || jid.Resource != "" || jid.Domain != schema.RoomDomain(h.domain) {
		return "", fmt.Errorf("%w: %s", schema.ErrRoomNotFound, jid.String())
	}
	return jid.Bare(), nil
}

// JoinRoom adds userID to the room under nick, creating the room when it does
// not exist. The creator becomes its owner. Joining a room the user is
// already in returns the current occupants.
func (h *Hub) JoinRoom(userID schema.UserID, roomJID, nick string) ([]schema.Occupant, error) {
	nick = strings.TrimSpace(nick)
	if nick == "" || strings.ContainsAny(nick, "/@ \t") {
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidNick, nick)
	}
	h.mu.Lock()
	r := h.rooms[roomJID]
	created := r == nil
	if created {
		r = newRoom(roomJID)
		h.rooms[roomJID] = r
	}
	if existing := r.occupantByUser(userID); existing != nil {
		occupants := r.occupants()
		h.mu.Unlock()
		return occupants, nil
	}
	if _, taken := r.members[nick]; taken {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", schema.ErrNickInUse, nick)
	}
	state := h.userLocked(userID)
	occ := schema.Occupant{
		Nick:        nick,
		JID:         h.JID(userID),
		Role:        "participant",
		Affiliation: "member",
		Presence:    state.presence,
		Status:      state.status,
	}
	if created {
		occ.Role = "moderator"
		occ.Affiliation = "owner"
	}
	r.members[nick] = &member{Occupant: occ, user: userID}
	occupants := r.occupants()
	h.mu.Unlock()

	h.log.With("user", userID).Info("hub room join", "room", roomJID, "nick", nick, "created", created)
	h.publishRoom(roomJID, Event{Type: EventOccupant, Room: roomJID, Occupant: occ}, userID)
	h.trace(userID, true, fmt.Sprintf("<presence to='%s/%s'/>", roomJID, escape(nick)))
	return occupants, nil
}

// LeaveRoom removes userID from the room. An empty, non-persistent room is
// destroyed together with its configuration form.
func (h *Hub) LeaveRoom(userID schema.UserID, roomJID string) error {
	h.mu.Lock()
	r := h.rooms[roomJID]
	if r == nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", schema.ErrRoomNotFound, roomJID)
	}
	m := r.occupantByUser(userID)
	if m == nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", schema.ErrNotInRoom, roomJID)
	}
	delete(r.members, m.Nick)
	occ := m.Occupant
	destroyed := len(r.members) == 0 && !r.persistent()
	if destroyed {
		delete(h.rooms, roomJID)
		r.form.Destroy()
	}
	h.mu.Unlock()

	h.log.With("user", userID).Info("hub room leave", "room", roomJID, "destroyed", destroyed)
	if !destroyed {
		h.publishRoom(roomJID, Event{Type: EventOccupant, Room: roomJID, Occupant: occ, Left: true}, userID)
	}
	h.trace(userID, true, fmt.Sprintf("<presence to='%s/%s' type='unavailable'/>", roomJID, escape(occ.Nick)))
	return nil
}

// Occupants lists the room's occupants by nick.
func (h *Hub) Occupants(roomJID string) ([]schema.Occupant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomJID]
	if r == nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrRoomNotFound, roomJID)
	}
	return r.occupants(), nil
}

// Occupant looks up one occupant by nick.
func (h *Hub) Occupant(roomJID, nick string) (schema.Occupant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomJID]
	if r == nil {
		return schema.Occupant{}, fmt.Errorf("%w: %s", schema.ErrRoomNotFound, roomJID)
	}
	m := r.members[nick]
	if m == nil {
		return schema.Occupant{}, fmt.Errorf("%w: %s", schema.ErrOccupantNotFound, nick)
	}
	return m.Occupant, nil
}

// Nick returns the nick userID uses in the room.
func (h *Hub) Nick(userID schema.UserID, roomJID string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomJID]
	if r == nil {
		return "", fmt.Errorf("%w: %s", schema.ErrRoomNotFound, roomJID)
	}
	m := r.occupantByUser(userID)
	if m == nil {
		return "", fmt.Errorf("%w: %s", schema.ErrNotInRoom, roomJID)
	}
	return m.Nick, nil
}

// RoomForm returns the room's configuration form. Only the owner may edit it.
// The hub keeps ownership; callers attach and detach.
func (h *Hub) RoomForm(userID schema.UserID, roomJID string) (*dataform.Form, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[roomJID]
	if r == nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrRoomNotFound, roomJID)
	}
	m := r.occupantByUser(userID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", schema.ErrNotInRoom, roomJID)
	}
	if m.Affiliation != "owner" {
		return nil, fmt.Errorf("%w: only the owner configures %s", schema.ErrNotOwner, roomJID)
	}
	return r.form, nil
}

// SubmitRoomForm applies the form's current values and tells the occupants.
func (h *Hub) SubmitRoomForm(userID schema.UserID, roomJID string) (map[string]string, error) {
	form, err := h.RoomForm(userID, roomJID)
	if err != nil {
		return nil, err
	}
	values, err := form.Submit()
	if err != nil {
		return nil, err
	}
	h.log.With("user", userID).Info("hub room configured", "room", roomJID)
	h.publishRoom(roomJID, Event{Type: EventRoomConfig, Room: roomJID, Config: values}, "")
	h.trace(userID, true, fmt.Sprintf("<iq to='%s' type='set'><query xmlns='http://jabber.org/protocol/muc#owner'/></iq>", roomJID))
	return values, nil
}

// publishRoom sends event to every occupant except skip.
func (h *Hub) publishRoom(roomJID string, event Event, skip schema.UserID) {
	h.mu.Lock()
	var targets []schema.UserID
	if r := h.rooms[roomJID]; r != nil {
		for _, m := range r.members {
			if m.user != skip && !slices.Contains(targets, m.user) {
				targets = append(targets, m.user)
			}
		}
	}
	h.mu.Unlock()
	for _, id := range targets {
		h.publish(id, event)
	}
}
