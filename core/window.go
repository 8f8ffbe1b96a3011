package core

import (
	"slices"
	"time"

	"pkt.systems/prattle/schema"
)

// DataForm is the part of a room configuration form a window needs. The form
// is owned elsewhere; a window only holds and releases a reference.
type DataForm interface {
	IsModified() bool
	Attach()
	Detach()
}

// Options configures window construction.
type Options struct {
	MaxLines int
	// SplitKinds lists the kinds that get a split layout. Nil selects the default set.
	SplitKinds []schema.WindowKind
	Clock      func() time.Time
}

func (o Options) newLayout(kind schema.WindowKind) Layout {
	kinds := o.SplitKinds
	if kinds == nil {
		kinds = schema.DefaultSplitKinds()
	}
	if slices.Contains(kinds, kind) {
		return NewSplitLayout(o.MaxLines)
	}
	return NewSimpleLayout(o.MaxLines)
}

func (o Options) clock() func() time.Time {
	if o.Clock != nil {
		return o.Clock
	}
	return time.Now
}

// Window is one conversation surface. The implementations are the seven
// *XxxWindow types of this package; construct them with the NewXxxWindow
// functions and release them with Free.
type Window interface {
	Kind() schema.WindowKind
	Subject() string
	Title() string
	Layout() Layout
	Unread() uint
	Focused() bool
	SetFocused(focused bool)
	MarkRead()

	PrintIncomingMessage(ts time.Time, sender, message string)
	ShowContact(contact schema.Contact)
	ShowOccupant(occupant schema.Occupant)
	ShowOccupantInfo(room string, occupant schema.Occupant)
	ShowStatusString(req StatusString)
	ShowInfo(contact schema.Contact)
	SavePrint(req PrintRequest)
	SavePrintln(message string)
	SaveNewline()

	Redraw()
	HideSubwin()
	ShowSubwin()
	MoveToEnd()
	PageTo(offset int)
	ScrollBack(n int)
	ScrollForward(n int)
	Attach(view View)
	Detach()

	base() *window
}

type window struct {
	kind    schema.WindowKind
	layout  Layout
	subject string
	unread  uint
	focused bool
	freed   bool
	now     func() time.Time
}

func newWindow(kind schema.WindowKind, subject string, opts Options) window {
	return window{
		kind:    kind,
		layout:  opts.newLayout(kind),
		subject: subject,
		now:     opts.clock(),
	}
}

func (w *window) base() *window { return w }

func (w *window) mustLive(op string) {
	if w.freed {
		fatal(op, "window "+w.kind.String()+" "+w.subject+" used after free")
	}
}

// Kind returns the fixed window kind.
func (w *window) Kind() schema.WindowKind { return w.kind }

// Subject returns the peer, room or tag the window is about.
func (w *window) Subject() string { return w.subject }

// Title returns the text shown in the title bar.
func (w *window) Title() string { return w.subject }

// Layout returns the owned layout; nil once the window is freed.
func (w *window) Layout() Layout { return w.layout }

// Unread returns the number of incoming messages not yet seen.
func (w *window) Unread() uint { return w.unread }

// Focused reports whether the window is the current window.
func (w *window) Focused() bool { return w.focused }

// SetFocused marks the window as current or not. It does not clear unread.
func (w *window) SetFocused(focused bool) {
	w.mustLive("set focus")
	w.focused = focused
}

// MarkRead clears the unread counter.
func (w *window) MarkRead() {
	w.mustLive("mark read")
	w.unread = 0
}

// Redraw re-renders the layout.
func (w *window) Redraw() {
	w.mustLive("redraw")
	w.layout.Redraw()
}

// HideSubwin hides a split layout's sub-region; a no-op for simple layouts.
func (w *window) HideSubwin() {
	w.mustLive("hide subwin")
	if split, ok := asSplit(w.layout); ok {
		split.HideSubRegion()
	}
}

// ShowSubwin shows a split layout's sub-region; a no-op for simple layouts.
func (w *window) ShowSubwin() {
	w.mustLive("show subwin")
	if split, ok := asSplit(w.layout); ok {
		split.ShowSubRegion()
	}
}

// MoveToEnd returns the window to the live tail. Unread is left alone.
func (w *window) MoveToEnd() {
	w.mustLive("move to end")
	w.layout.MoveToEnd()
}

// PageTo pins the view at offset.
func (w *window) PageTo(offset int) {
	w.mustLive("page")
	w.layout.PageTo(offset)
}

// ScrollBack pages towards older history.
func (w *window) ScrollBack(n int) {
	w.mustLive("scroll back")
	w.layout.ScrollBack(n)
}

// ScrollForward pages towards the tail.
func (w *window) ScrollForward(n int) {
	w.mustLive("scroll forward")
	w.layout.ScrollForward(n)
}

// Attach binds the window's layout to a render target.
func (w *window) Attach(view View) {
	w.mustLive("attach")
	w.layout.Attach(view)
}

// Detach unbinds the window's layout.
func (w *window) Detach() {
	w.mustLive("detach")
	w.layout.Detach()
}

// ConsoleWindow is the always-present status window.
type ConsoleWindow struct {
	window
}

// NewConsoleWindow creates the console.
func NewConsoleWindow(opts Options) *ConsoleWindow {
	return &ConsoleWindow{window: newWindow(schema.WindowConsole, "console", opts)}
}

// Title returns "Console".
func (w *ConsoleWindow) Title() string { return "Console" }

// ChatWindow is a one-to-one conversation with a contact.
type ChatWindow struct {
	window
	otr          bool
	trusted      bool
	resource     string
	historyShown bool
}

// NewChatWindow creates a chat window with barejid.
func NewChatWindow(barejid string, opts Options) *ChatWindow {
	return &ChatWindow{window: newWindow(schema.WindowChat, barejid, opts)}
}

// Title returns the peer JID including the active resource.
func (w *ChatWindow) Title() string {
	if w.resource != "" {
		return w.subject + "/" + w.resource
	}
	return w.subject
}

// SetOTR records whether the session is encrypted. Ending encryption also clears trust.
func (w *ChatWindow) SetOTR(on bool) {
	w.mustLive("set otr")
	w.otr = on
	if !on {
		w.trusted = false
	}
}

// SetTrusted records whether the encrypted session is verified.
func (w *ChatWindow) SetTrusted(trusted bool) {
	w.mustLive("set trusted")
	w.trusted = trusted
}

// SetResource records the resource messages are addressed to.
func (w *ChatWindow) SetResource(resource string) {
	w.mustLive("set resource")
	w.resource = resource
}

// ClearResource forgets the active resource.
func (w *ChatWindow) ClearResource() {
	w.mustLive("clear resource")
	w.resource = ""
}

// Resource returns the active resource, empty when none.
func (w *ChatWindow) Resource() string { return w.resource }

// SetHistoryShown records that stored history has been printed.
func (w *ChatWindow) SetHistoryShown() {
	w.mustLive("set history shown")
	w.historyShown = true
}

// MucWindow is a group chat room.
type MucWindow struct {
	window
}

// NewMucWindow creates a room window for roomjid.
func NewMucWindow(roomjid string, opts Options) *MucWindow {
	return &MucWindow{window: newWindow(schema.WindowMuc, roomjid, opts)}
}

// MucConfigWindow edits a room configuration form it does not own.
type MucConfigWindow struct {
	window
	form DataForm
}

// NewMucConfigWindow creates a configuration window for roomjid holding form.
func NewMucConfigWindow(roomjid string, form DataForm, opts Options) *MucConfigWindow {
	if form != nil {
		form.Attach()
	}
	return &MucConfigWindow{window: newWindow(schema.WindowMucConfig, roomjid, opts), form: form}
}

// Title returns the room JID with a config suffix.
func (w *MucConfigWindow) Title() string { return w.subject + " config" }

// Form returns the held form, nil once released.
func (w *MucConfigWindow) Form() DataForm { return w.form }

// PrivateWindow is a private conversation with a room occupant.
type PrivateWindow struct {
	window
}

// NewPrivateWindow creates a private window for fulljid (room/nick).
func NewPrivateWindow(fulljid string, opts Options) *PrivateWindow {
	return &PrivateWindow{window: newWindow(schema.WindowPrivate, fulljid, opts)}
}

// PluginWindow is a window created by a plugin.
type PluginWindow struct {
	window
	tag string
}

// NewPluginWindow creates a plugin window identified by tag.
func NewPluginWindow(tag string, opts Options) *PluginWindow {
	return &PluginWindow{window: newWindow(schema.WindowPlugin, tag, opts), tag: tag}
}

// Tag returns the plugin-chosen window tag.
func (w *PluginWindow) Tag() string { return w.tag }

// XMLWindow shows raw protocol traffic.
type XMLWindow struct {
	window
}

// NewXMLWindow creates the protocol console.
func NewXMLWindow(opts Options) *XMLWindow {
	return &XMLWindow{window: newWindow(schema.WindowXML, "xmlconsole", opts)}
}

// Title returns "XML Console".
func (w *XMLWindow) Title() string { return "XML Console" }

// Free releases the window's layout, buffer and sub-region. A held room form
// is detached, never destroyed. Freeing a window twice panics.
func Free(w Window) {
	b := w.base()
	if b.freed {
		fatal("free", "window "+b.kind.String()+" "+b.subject+" already freed")
	}
	switch win := w.(type) {
	case *MucConfigWindow:
		if win.form != nil {
			win.form.Detach()
			win.form = nil
		}
	case *ChatWindow:
		win.otr = false
		win.trusted = false
		win.resource = ""
	}
	b.layout.release()
	b.layout = nil
	b.focused = false
	b.freed = true
}

// IsOTR reports whether w is a chat window with an encrypted session.
func IsOTR(w Window) bool {
	chat, ok := w.(*ChatWindow)
	return ok && chat.otr
}

// IsTrusted reports whether w is a chat window with a verified encrypted session.
func IsTrusted(w Window) bool {
	chat, ok := w.(*ChatWindow)
	return ok && chat.trusted
}

// HasChatResource reports whether w is a chat window with an active resource.
func HasChatResource(w Window) bool {
	chat, ok := w.(*ChatWindow)
	return ok && chat.resource != ""
}

// ChatHistoryShown reports whether w is a chat window whose stored history was printed.
func ChatHistoryShown(w Window) bool {
	chat, ok := w.(*ChatWindow)
	return ok && chat.historyShown
}

// HasModifiedForm reports whether w is a room configuration window whose form has unsubmitted changes.
func HasModifiedForm(w Window) bool {
	cfg, ok := w.(*MucConfigWindow)
	return ok && cfg.form != nil && cfg.form.IsModified()
}

// HasActiveSubwin reports whether w has a split layout with a visible sub-region.
func HasActiveSubwin(w Window) bool {
	split, ok := asSplit(w.Layout())
	return ok && split.SubRegionVisible()
}

// SetSubLines replaces the sub-region content of a split window; a no-op otherwise.
func SetSubLines(w Window, lines []SubLine) {
	w.base().mustLive("set sub lines")
	if split, ok := asSplit(w.Layout()); ok {
		split.SetSubLines(lines)
	}
}

// ScrollSub scrolls the sub-region of a split window; a no-op otherwise.
func ScrollSub(w Window, delta int) {
	w.base().mustLive("scroll sub")
	if split, ok := asSplit(w.Layout()); ok {
		split.ScrollSub(delta)
	}
}
