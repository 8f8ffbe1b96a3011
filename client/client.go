// Package client is one user's terminal session: the numbered window slots,
// the title and status bars, the input line and the routing of hub events
// into windows.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pkt.systems/prattle/core"
	"pkt.systems/prattle/internal/command"
	"pkt.systems/prattle/internal/dataform"
	"pkt.systems/prattle/internal/hub"
	"pkt.systems/prattle/internal/logx"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/internal/plugins"
	"pkt.systems/prattle/internal/prefs"
	"pkt.systems/prattle/internal/surface"
	"pkt.systems/prattle/internal/theme"
	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// MaxSlots is the number of window slots; the console always holds slot 1.
const MaxSlots = 10

// Config wires a client to its user, terminal and hub.
type Config struct {
	UserID schema.UserID
	Hub    *hub.Hub
	Screen surface.Screen
	// Prefs defaults to prefs.New(). PrefsStore, when set, receives every change.
	Prefs      *prefs.Prefs
	PrefsStore *prefs.Store
	// Notifier defaults to notifier.Nop.
	Notifier notifier.Notifier
	Plugins  []plugins.Plugin

	MaxLines         int
	SplitKinds       []schema.WindowKind
	RosterPercent    int
	OccupantsPercent int
	TimeFormat       string
	// HistoryLines is how much stored history a new chat window prints.
	HistoryLines        int
	DisableAuditLogging bool
	Clock               func() time.Time
}

// Client is driven from a single goroutine by Run; plugin timers and other
// goroutines reach it through Post.
type Client struct {
	ctx      context.Context
	cfg      Config
	hub      *hub.Hub
	screen   surface.Screen
	handler  *command.Handler
	plugins  *plugins.Manager
	prefs    *prefs.Prefs
	theme    *theme.Theme
	metrics  *core.Metrics
	opts     core.Options
	notifier notifier.Notifier

	slots   [MaxSlots + 1]core.Window
	current int
	// pluginInput holds the input callbacks of plugin windows by tag.
	pluginInput map[string]func(string)
	// roomNicks tracks the occupants seen per room.
	roomNicks map[string]map[string]bool

	editor     lineEditor
	history    []string
	historyIdx int
	draft      string
	completer  *prefs.Autocompleter
	// completeStale forces the candidates to be rebuilt on the next Tab.
	completeStale bool

	posts   chan func()
	quit    bool
	blinkOn bool
	dirty   bool
}

var _ command.Session = (*Client)(nil)
var _ plugins.Host = (*Client)(nil)

// New constructs a client with the console in slot 1. Plugins are loaded
// but their timers only start with Run.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := schema.ValidateUserID(cfg.UserID); err != nil {
		return nil, err
	}
	if cfg.Hub == nil {
		return nil, errors.New("client: hub is required")
	}
	if cfg.Screen == nil {
		return nil, errors.New("client: screen is required")
	}
	if cfg.Prefs == nil {
		cfg.Prefs = prefs.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.Nop{}
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = schema.DefaultBufferMaxLines
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = schema.DefaultTimeFormat
	}
	if cfg.HistoryLines <= 0 {
		cfg.HistoryLines = 20
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	ctx = logx.ContextWithUserLogger(ctx, pslog.Ctx(ctx).With("user", cfg.UserID), cfg.UserID)
	c := &Client{
		ctx:         prefs.WithContext(ctx, cfg.Prefs),
		cfg:         cfg,
		hub:         cfg.Hub,
		screen:      cfg.Screen,
		prefs:       cfg.Prefs,
		theme:       theme.ForName(cfg.Prefs.Theme),
		notifier:    cfg.Notifier,
		opts:        core.Options{MaxLines: cfg.MaxLines, SplitKinds: cfg.SplitKinds, Clock: cfg.Clock},
		pluginInput: make(map[string]func(string)),
		roomNicks:   make(map[string]map[string]bool),
		completer:   prefs.NewAutocompleter(nil),
		historyIdx:  -1,
		completeStale: true,
		posts:       make(chan func(), 64),
		dirty:       true,
	}
	c.metrics = core.NewMetrics(core.MetricsConfig{
		RosterPercent:    cfg.RosterPercent,
		OccupantsPercent: cfg.OccupantsPercent,
		ShowRoster:       cfg.Prefs.Roster,
		ShowOccupants:    cfg.Prefs.Occupants,
	})
	c.plugins = plugins.NewManager(c, c.Post, c.log())
	c.plugins.Load(cfg.Plugins...)
	c.handler = command.NewHandler(cfg.Hub, c.plugins, command.HandlerConfig{DisableAuditLogging: cfg.DisableAuditLogging})

	console := core.NewConsoleWindow(c.opts)
	c.slots[1] = console
	c.current = 1
	console.SetFocused(true)
	w, h := c.screen.Size()
	c.metrics.Init(w, h)
	c.attachCurrent()
	console.SavePrintln("Welcome to prattle, " + string(cfg.UserID) + ". Type /help for commands.")
	return c, nil
}

func (c *Client) log() pslog.Logger {
	return logx.WithUserWin(c.ctx, c.cfg.UserID, c.currentSubject())
}

func (c *Client) currentSubject() string {
	if w := c.slots[c.current]; w != nil {
		return w.Subject()
	}
	return ""
}

// UserID returns the session owner.
func (c *Client) UserID() schema.UserID { return c.cfg.UserID }

// Current returns the focused window.
func (c *Client) Current() core.Window { return c.slots[c.current] }

// Console returns the window in slot 1.
func (c *Client) Console() core.Window { return c.slots[1] }

// Window returns the window in slot or nil.
func (c *Client) Window(slot int) core.Window {
	if slot < 1 || slot > MaxSlots {
		return nil
	}
	return c.slots[slot]
}

// Find returns the slot and window of kind about subject.
func (c *Client) Find(kind schema.WindowKind, subject string) (int, core.Window) {
	for slot := 1; slot <= MaxSlots; slot++ {
		if w := c.slots[slot]; w != nil && w.Kind() == kind && w.Subject() == subject {
			return slot, w
		}
	}
	return 0, nil
}

// Open places w in the first free slot without focusing it. A window that
// cannot be placed is freed.
func (c *Client) Open(w core.Window) (int, error) {
	for slot := 2; slot <= MaxSlots; slot++ {
		if c.slots[slot] == nil {
			c.applyPanelPref(w)
			c.slots[slot] = w
			c.log().Info("client window open", "slot", slot, "kind", w.Kind().String(), "subject", w.Subject())
			c.dirty = true
			return slot, nil
		}
	}
	core.Free(w)
	return 0, schema.ErrNoFreeSlot
}

// Focus makes slot the current window and clears its unread counter.
func (c *Client) Focus(slot int) error {
	w := c.Window(slot)
	if w == nil {
		return fmt.Errorf("%w: %d", schema.ErrWindowNotFound, slot)
	}
	if slot == c.current {
		w.MarkRead()
		return nil
	}
	if prev := c.slots[c.current]; prev != nil {
		prev.SetFocused(false)
		prev.Detach()
	}
	c.current = slot
	w.SetFocused(true)
	if !w.Layout().Paged() {
		w.MarkRead()
	}
	c.attachCurrent()
	c.dirty = true
	return nil
}

// Next focuses the next occupied slot, wrapping around.
func (c *Client) Next() { c.cycle(1) }

// Prev focuses the previous occupied slot, wrapping around.
func (c *Client) Prev() { c.cycle(-1) }

func (c *Client) cycle(step int) {
	slot := c.current
	for i := 0; i < MaxSlots; i++ {
		slot += step
		if slot > MaxSlots {
			slot = 1
		}
		if slot < 1 {
			slot = MaxSlots
		}
		if c.slots[slot] != nil {
			_ = c.Focus(slot)
			return
		}
	}
}

// Close frees the window in slot (0 for the current window). Closing a room
// leaves it; the console cannot be closed.
func (c *Client) Close(slot int) error {
	if slot == 0 {
		slot = c.current
	}
	if slot == 1 {
		return schema.ErrConsoleClose
	}
	w := c.Window(slot)
	if w == nil {
		return fmt.Errorf("%w: %d", schema.ErrWindowNotFound, slot)
	}
	switch w.Kind() {
	case schema.WindowMuc:
		if err := c.hub.LeaveRoom(c.cfg.UserID, w.Subject()); err != nil {
			c.log().Warn("client leave room failed", "room", w.Subject(), "err", err)
		}
		delete(c.roomNicks, w.Subject())
	case schema.WindowPlugin:
		delete(c.pluginInput, w.Subject())
	}
	c.slots[slot] = nil
	c.log().Info("client window close", "slot", slot, "kind", w.Kind().String(), "subject", w.Subject())
	core.Free(w)
	c.dirty = true
	if slot == c.current {
		return c.Focus(1)
	}
	return nil
}

// Windows summarises the occupied slots.
func (c *Client) Windows() []command.WindowInfo {
	var out []command.WindowInfo
	for slot := 1; slot <= MaxSlots; slot++ {
		w := c.slots[slot]
		if w == nil {
			continue
		}
		out = append(out, command.WindowInfo{
			Slot:    slot,
			Kind:    w.Kind(),
			Title:   w.Title(),
			Unread:  w.Unread(),
			Current: slot == c.current,
		})
	}
	return out
}

// openFocused focuses the window of kind about subject, creating it with
// create when missing.
func (c *Client) openFocused(kind schema.WindowKind, subject string, create func() core.Window) (core.Window, bool, error) {
	if slot, w := c.Find(kind, subject); w != nil {
		return w, false, c.Focus(slot)
	}
	w := create()
	slot, err := c.Open(w)
	if err != nil {
		return nil, false, err
	}
	return w, true, c.Focus(slot)
}

// OpenChat focuses or creates the chat window for barejid.
func (c *Client) OpenChat(barejid string) (core.Window, error) {
	w, _, err := c.openFocused(schema.WindowChat, barejid, func() core.Window {
		return c.newChat(barejid, nil)
	})
	return w, err
}

// newChat creates a chat window and prints its stored history once. A
// trailing history entry equal to skip is left for the caller to print.
func (c *Client) newChat(barejid string, skip *schema.Message) *core.ChatWindow {
	chat := core.NewChatWindow(barejid, c.opts)
	msgs, err := c.hub.History(c.cfg.UserID, barejid, c.cfg.HistoryLines)
	if err != nil {
		c.log().Warn("client history load failed", "peer", barejid, "err", err)
	}
	if skip != nil && len(msgs) > 0 && msgs[len(msgs)-1] == *skip {
		msgs = msgs[:len(msgs)-1]
	}
	me := c.hub.JID(c.cfg.UserID)
	for _, msg := range msgs {
		if msg.From == me {
			core.PrintOutgoing(chat, msg.Time, "me", msg.Body)
			continue
		}
		chat.SavePrint(core.PrintRequest{ShowChar: '-', Time: msg.Time, Theme: schema.ThemeTextThem, Sender: nameOf(msg.From), Text: msg.Body})
	}
	chat.SetHistoryShown()
	c.refreshRoster(chat)
	return chat
}

// OpenMuc focuses or creates the room window.
func (c *Client) OpenMuc(roomjid string) (core.Window, error) {
	w, _, err := c.openFocused(schema.WindowMuc, roomjid, func() core.Window {
		return core.NewMucWindow(roomjid, c.opts)
	})
	if err == nil {
		c.refreshOccupants(roomjid)
	}
	return w, err
}

// OpenPrivate focuses or creates a private conversation with a room occupant.
func (c *Client) OpenPrivate(fulljid string) (core.Window, error) {
	w, _, err := c.openFocused(schema.WindowPrivate, fulljid, func() core.Window {
		return core.NewPrivateWindow(fulljid, c.opts)
	})
	return w, err
}

// OpenMucConfig focuses or creates the configuration window of a room.
func (c *Client) OpenMucConfig(roomjid string, form *dataform.Form) (core.Window, error) {
	w, _, err := c.openFocused(schema.WindowMucConfig, roomjid, func() core.Window {
		cfg := core.NewMucConfigWindow(roomjid, form, c.opts)
		var lines []core.SubLine
		for _, field := range form.Fields() {
			lines = append(lines, core.SubLine{Text: field.Var, Theme: schema.ThemeRosterHeader})
		}
		core.SetSubLines(cfg, lines)
		return cfg
	})
	return w, err
}

// OpenXMLConsole focuses or creates the protocol console.
func (c *Client) OpenXMLConsole() (core.Window, error) {
	w, _, err := c.openFocused(schema.WindowXML, "xmlconsole", func() core.Window {
		return core.NewXMLWindow(c.opts)
	})
	return w, err
}

// Prefs returns the live preferences.
func (c *Client) Prefs() *prefs.Prefs { return c.prefs }

// ApplyPrefs pushes panel and theme preferences into the UI and saves them.
func (c *Client) ApplyPrefs() {
	c.metrics.SetRosterVisible(c.prefs.Roster)
	c.metrics.SetOccupantsVisible(c.prefs.Occupants)
	if c.theme.Name() != c.prefs.Theme && c.prefs.Theme != "" {
		c.theme = theme.ForName(c.prefs.Theme)
	}
	for slot := 1; slot <= MaxSlots; slot++ {
		w := c.slots[slot]
		if w == nil {
			continue
		}
		c.applyPanelPref(w)
	}
	c.completeStale = true
	c.attachCurrent()
	c.savePrefs()
	c.dirty = true
}

// applyPanelPref shows or hides the side panel of w: occupants for rooms,
// the roster for everything else with a panel.
func (c *Client) applyPanelPref(w core.Window) {
	visible := c.prefs.Roster
	if w.Kind() == schema.WindowMuc {
		visible = c.prefs.Occupants
	}
	if visible {
		w.ShowSubwin()
	} else {
		w.HideSubwin()
	}
}

func (c *Client) savePrefs() {
	if c.cfg.PrefsStore == nil {
		return
	}
	if err := c.cfg.PrefsStore.Save(c.cfg.UserID, c.prefs); err != nil {
		c.log().Warn("client prefs save failed", "err", err)
	}
}

// Quit ends Run after the current iteration.
func (c *Client) Quit() {
	c.log().Info("client quit")
	c.quit = true
}

// Post queues fn to run on the event loop. It never blocks; a full queue
// drops fn.
func (c *Client) Post(fn func()) {
	select {
	case c.posts <- fn:
	default:
		logx.WithUser(c.ctx, c.cfg.UserID).Warn("client post dropped")
	}
}

func nameOf(jid string) string {
	parsed, err := schema.ParseJID(jid)
	if err != nil {
		return jid
	}
	if parsed.Local != "" {
		return parsed.Local
	}
	return parsed.Domain
}
