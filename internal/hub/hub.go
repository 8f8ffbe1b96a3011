// Package hub routes messages, presence and room traffic between the users
// of one prattle server. It stands in for a chat-protocol server: every
// connected session subscribes to its user's events.
package hub

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"pkt.systems/prattle/internal/chatlog"
	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// EchoUser is the built-in bot that answers every direct message.
const EchoUser schema.UserID = "echo"

// EventType identifies the event payload.
type EventType string

const (
	// EventMessage carries a direct message.
	EventMessage EventType = "message"
	// EventRoomMessage carries a message sent to a joined room.
	EventRoomMessage EventType = "room_message"
	// EventPrivate carries a private message from a room occupant.
	EventPrivate EventType = "private"
	// EventPresence carries a contact presence change.
	EventPresence EventType = "presence"
	// EventOccupant carries an occupant join, update or leave.
	EventOccupant EventType = "occupant"
	// EventRoomConfig carries a submitted room configuration.
	EventRoomConfig EventType = "room_config"
	// EventStanza carries a protocol trace line for the XML console.
	EventStanza EventType = "stanza"
)

// PresenceUpdate describes a contact's new availability.
type PresenceUpdate struct {
	JID          string
	Show         schema.Presence
	Status       string
	LastActivity time.Time
	// Came is true when the contact just connected, false when it left.
	Came bool
}

// Event is delivered to subscribers.
type Event struct {
	Type     EventType
	Message  schema.Message
	Room     string
	Presence PresenceUpdate
	Occupant schema.Occupant
	Left     bool
	Config   map[string]string
	Stanza   string
	Outgoing bool
}

// Options configures a Hub.
type Options struct {
	Domain  string
	History *chatlog.Log
	Logger  pslog.Logger
	Clock   func() time.Time
}

type userState struct {
	presence     schema.Presence
	status       string
	lastActivity time.Time
	sessions     int
}

// Hub is safe for concurrent use.
type Hub struct {
	mu      sync.Mutex
	domain  string
	subs    map[schema.UserID]map[chan Event]struct{}
	users   map[schema.UserID]*userState
	rooms   map[string]*room
	history *chatlog.Log
	log     pslog.Logger
	depth   int
	now     func() time.Time
}

// New constructs a Hub that already knows the echo bot.
func New(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	domain := opts.Domain
	if domain == "" {
		domain = schema.DefaultDomain
	}
	history := opts.History
	if history == nil {
		history = chatlog.NewLog(nil, 0, logger)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	h := &Hub{
		domain:  domain,
		subs:    make(map[schema.UserID]map[chan Event]struct{}),
		users:   make(map[schema.UserID]*userState),
		rooms:   make(map[string]*room),
		history: history,
		log:     logger,
		depth:   256,
		now:     now,
	}
	h.users[EchoUser] = &userState{presence: schema.PresenceOnline, status: "I repeat what you say", sessions: 1}
	return h
}

// Domain returns the served JID domain.
func (h *Hub) Domain() string { return h.domain }

// JID returns the bare JID of a local user.
func (h *Hub) JID(userID schema.UserID) string {
	return schema.BareJID(userID, h.domain)
}

// AddUser makes userID known to the hub so others can message it.
func (h *Hub) AddUser(userID schema.UserID) error {
	if err := schema.ValidateUserID(userID); err != nil {
		return err
	}
	h.mu.Lock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = &userState{presence: schema.PresenceOffline}
	}
	h.mu.Unlock()
	return nil
}

// Users returns the known users in order.
func (h *Hub) Users() []schema.UserID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]schema.UserID, 0, len(h.users))
	for id := range h.users {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Subscribe registers a session for the user and returns a channel + cancel.
// The first session brings the user online; cancelling the last one takes
// it offline and removes it from every room.
func (h *Hub) Subscribe(userID schema.UserID) (<-chan Event, func()) {
	if h == nil {
		return nil, func() {}
	}
	ch := make(chan Event, h.depth)
	h.mu.Lock()
	userSubs := h.subs[userID]
	if userSubs == nil {
		userSubs = make(map[chan Event]struct{})
		h.subs[userID] = userSubs
	}
	userSubs[ch] = struct{}{}
	count := len(userSubs)
	state := h.userLocked(userID)
	state.sessions++
	cameOnline := state.sessions == 1
	if cameOnline {
		state.presence = schema.PresenceOnline
		state.status = ""
	}
	update := h.presenceLocked(userID, state, true)
	h.mu.Unlock()
	h.log.With("user", userID).Debug("hub subscribe", "subs", count)
	if cameOnline {
		h.broadcastPresence(userID, update)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(userID, ch) })
	}
}

func (h *Hub) unsubscribe(userID schema.UserID, ch chan Event) {
	h.mu.Lock()
	if subs := h.subs[userID]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.subs, userID)
		}
	}
	state := h.userLocked(userID)
	if state.sessions > 0 {
		state.sessions--
	}
	wentOffline := state.sessions == 0
	var update PresenceUpdate
	var left []string
	if wentOffline {
		state.presence = schema.PresenceOffline
		state.status = ""
		state.lastActivity = h.now()
		update = h.presenceLocked(userID, state, false)
		for jid, r := range h.rooms {
			if r.occupantByUser(userID) != nil {
				left = append(left, jid)
			}
		}
	}
	close(ch)
	h.mu.Unlock()
	h.log.With("user", userID).Debug("hub unsubscribe")
	if wentOffline {
		for _, jid := range left {
			_ = h.LeaveRoom(userID, jid)
		}
		h.broadcastPresence(userID, update)
	}
}

// SetPresence changes the user's availability and tells every other user.
func (h *Hub) SetPresence(userID schema.UserID, show schema.Presence, status string) error {
	normalized, err := schema.NormalizePresence(string(show))
	if err != nil {
		return err
	}
	h.mu.Lock()
	state := h.userLocked(userID)
	state.presence = normalized
	state.status = status
	if normalized == schema.PresenceOnline || normalized == schema.PresenceChat {
		state.lastActivity = time.Time{}
	} else {
		state.lastActivity = h.now()
	}
	update := h.presenceLocked(userID, state, true)
	occupantEvents := make(map[string]schema.Occupant)
	for _, r := range h.rooms {
		if m := r.occupantByUser(userID); m != nil {
			m.Presence = normalized
			m.Status = status
			occupantEvents[r.jid] = m.Occupant
		}
	}
	h.mu.Unlock()
	h.log.With("user", userID).Info("hub presence", "show", normalized)
	h.broadcastPresence(userID, update)
	for jid, occ := range occupantEvents {
		h.publishRoom(jid, Event{Type: EventOccupant, Room: jid, Occupant: occ}, userID)
	}
	return nil
}

// Roster returns every other known user as a contact of userID.
func (h *Hub) Roster(userID schema.UserID) []schema.Contact {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]schema.Contact, 0, len(h.users))
	for id, state := range h.users {
		if id == userID {
			continue
		}
		out = append(out, h.contactLocked(id, state))
	}
	slices.SortFunc(out, func(a, b schema.Contact) int {
		return cmp.Compare(a.JID, b.JID)
	})
	return out
}

// Contact returns the roster entry for a local user jid.
func (h *Hub) Contact(jid string) (schema.Contact, error) {
	target, err := h.localUser(jid)
	if err != nil {
		return schema.Contact{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contactLocked(target, h.users[target]), nil
}

// History returns up to n stored direct messages between userID and peer.
func (h *Hub) History(userID schema.UserID, peer string, n int) ([]schema.Message, error) {
	return h.history.History(userID, peer, n)
}

func (h *Hub) contactLocked(id schema.UserID, state *userState) schema.Contact {
	contact := schema.Contact{
		JID:          h.JID(id),
		Subscription: "both",
		Presence:     state.presence,
		Status:       state.status,
		LastActivity: state.lastActivity,
	}
	if id == EchoUser {
		contact.Name = "Echo"
	}
	if state.sessions > 0 {
		for i := 0; i < state.sessions; i++ {
			contact.Resources = append(contact.Resources, schema.Resource{
				Name:     resourceName(i),
				Priority: 0,
				Presence: state.presence,
				Status:   state.status,
			})
		}
	}
	return contact
}

func resourceName(i int) string {
	if i == 0 {
		return "prattle"
	}
	return "prattle-" + strconv.Itoa(i+1)
}

func (h *Hub) userLocked(userID schema.UserID) *userState {
	state := h.users[userID]
	if state == nil {
		state = &userState{presence: schema.PresenceOffline}
		h.users[userID] = state
	}
	return state
}

func (h *Hub) presenceLocked(userID schema.UserID, state *userState, came bool) PresenceUpdate {
	return PresenceUpdate{
		JID:          h.JID(userID),
		Show:         state.presence,
		Status:       state.status,
		LastActivity: state.lastActivity,
		Came:         came,
	}
}

// localUser resolves jid to a known local user.
func (h *Hub) localUser(raw string) (schema.UserID, error) {
	jid, err := schema.QualifyJID(raw, h.domain)
	if err != nil {
		return "", err
	}
	if jid.Domain != h.domain || jid.Local == "" {
		return "", unknownUser(jid.Bare())
	}
	userID := schema.UserID(jid.Local)
	h.mu.Lock()
	_, ok := h.users[userID]
	h.mu.Unlock()
	if !ok {
		return "", unknownUser(jid.Bare())
	}
	return userID, nil
}

func (h *Hub) broadcastPresence(from schema.UserID, update PresenceUpdate) {
	h.mu.Lock()
	targets := make([]schema.UserID, 0, len(h.subs))
	for id := range h.subs {
		if id != from {
			targets = append(targets, id)
		}
	}
	h.mu.Unlock()
	event := Event{Type: EventPresence, Presence: update}
	for _, id := range targets {
		h.publish(id, event)
	}
}

func unknownUser(jid string) error {
	return fmt.Errorf("%w: %s", schema.ErrUnknownUser, jid)
}

// publish delivers without blocking; sends happen under the lock so a
// concurrent unsubscribe never closes a channel mid-send.
func (h *Hub) publish(userID schema.UserID, event Event) {
	if h == nil {
		return
	}
	dropped := 0
	h.mu.Lock()
	for sub := range h.subs[userID] {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		h.log.With("user", userID).Trace("hub dropped", "count", dropped, "type", event.Type)
	}
}
