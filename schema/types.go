package schema

import "time"

// UserID identifies a local account. It is the local part of the user's JID.
type UserID string

// ThemeName identifies a UI theme.
type ThemeName string

// Presence is the availability a contact or occupant advertises.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceChat    Presence = "chat"
	PresenceAway    Presence = "away"
	PresenceXA      Presence = "xa"
	PresenceDND     Presence = "dnd"
	PresenceOffline Presence = "offline"
)

// Resource is one connected session of a contact.
type Resource struct {
	Name     string
	Priority int
	Presence Presence
	Status   string
}

// Contact is a roster entry as seen by one user.
type Contact struct {
	JID          string
	Name         string
	Subscription string
	Presence     Presence
	Status       string
	LastActivity time.Time
	Resources    []Resource
}

// DisplayName returns the roster name, falling back to the JID.
func (c Contact) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.JID
}

// Occupant is a participant of a group chat room.
type Occupant struct {
	Nick        string
	JID         string
	Role        string
	Affiliation string
	Presence    Presence
	Status      string
}

// Message is a stored or delivered chat message.
type Message struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Body string    `json:"body"`
	Time time.Time `json:"time"`
}
