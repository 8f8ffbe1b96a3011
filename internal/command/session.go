package command

import (
	"pkt.systems/prattle/core"
	"pkt.systems/prattle/internal/dataform"
	"pkt.systems/prattle/internal/hub"
	"pkt.systems/prattle/internal/plugins"
	"pkt.systems/prattle/internal/prefs"
	"pkt.systems/prattle/schema"
)

// WindowInfo summarises one occupied window slot.
type WindowInfo struct {
	Slot    int
	Kind    schema.WindowKind
	Title   string
	Unread  uint
	Current bool
}

// Session is the client a command acts on. Every method runs on the
// client's event loop.
type Session interface {
	UserID() schema.UserID
	Current() core.Window
	Console() core.Window
	// The Open methods focus an existing window for the subject or create
	// one in the first free slot.
	OpenChat(barejid string) (core.Window, error)
	OpenMuc(roomjid string) (core.Window, error)
	OpenPrivate(fulljid string) (core.Window, error)
	OpenMucConfig(roomjid string, form *dataform.Form) (core.Window, error)
	OpenXMLConsole() (core.Window, error)
	// Window returns the window in slot, or nil when the slot is empty.
	Window(slot int) core.Window
	Focus(slot int) error
	// Close frees the window in slot; slot 0 means the current window.
	Close(slot int) error
	Windows() []WindowInfo
	Prefs() *prefs.Prefs
	// ApplyPrefs re-reads panel and theme preferences and saves them.
	ApplyPrefs()
	Quit()
}

// Hub is the message router the commands talk to.
type Hub interface {
	Domain() string
	JID(userID schema.UserID) string
	RoomJID(raw string) (string, error)
	SendMessage(userID schema.UserID, to, body string) (schema.Message, error)
	SendRoom(userID schema.UserID, roomJID, body string) (schema.Message, error)
	SendPrivate(userID schema.UserID, fullJID, body string) (schema.Message, error)
	SetPresence(userID schema.UserID, show schema.Presence, status string) error
	Roster(userID schema.UserID) []schema.Contact
	Contact(jid string) (schema.Contact, error)
	JoinRoom(userID schema.UserID, roomJID, nick string) ([]schema.Occupant, error)
	LeaveRoom(userID schema.UserID, roomJID string) error
	Occupants(roomJID string) ([]schema.Occupant, error)
	Occupant(roomJID, nick string) (schema.Occupant, error)
	Nick(userID schema.UserID, roomJID string) (string, error)
	RoomForm(userID schema.UserID, roomJID string) (*dataform.Form, error)
	SubmitRoomForm(userID schema.UserID, roomJID string) (map[string]string, error)
}

var _ Hub = (*hub.Hub)(nil)

// Plugins runs commands contributed by plugins.
type Plugins interface {
	Run(name string, args []string) (bool, error)
	Commands() []plugins.Command
}
