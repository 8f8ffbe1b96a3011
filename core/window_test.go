package core

import (
	"strconv"
	"testing"
	"time"

	"pkt.systems/prattle/internal/dataform"
	"pkt.systems/prattle/schema"
)

func allWindows(opts Options, form DataForm) []Window {
	return []Window{
		NewConsoleWindow(opts),
		NewChatWindow("bob@localhost", opts),
		NewMucWindow("lobby@conference.localhost", opts),
		NewMucConfigWindow("lobby@conference.localhost", form, opts),
		NewPrivateWindow("lobby@conference.localhost/carol", opts),
		NewPluginWindow("clock", opts),
		NewXMLWindow(opts),
	}
}

func TestIncomingWhileUnfocusedCountsUnread(t *testing.T) {
	chat := NewChatWindow("bob@localhost", Options{})
	for _, msg := range []string{"one", "two", "three"} {
		chat.PrintIncomingMessage(noon, "bob", msg)
	}
	if chat.Unread() != 3 {
		t.Fatalf("expected 3 unread, got %d", chat.Unread())
	}
	got := bufferTexts(t, chat.Layout().Buffer())
	if len(got) != 3 || got[0] != "one" || got[1] != "two" || got[2] != "three" {
		t.Fatalf("unexpected buffer order: %v", got)
	}
}

func TestIncomingWhileLiveAndFocused(t *testing.T) {
	for _, w := range allWindows(Options{}, dataform.New("cfg", nil)) {
		w.SetFocused(true)
		w.PrintIncomingMessage(noon, "bob", "hello")
		if w.Unread() != 0 {
			t.Fatalf("%s: expected focused live window to stay read, got %d", w.Kind(), w.Unread())
		}
		if w.Layout().ScrollY() != w.Layout().Buffer().LineCount() {
			t.Fatalf("%s: expected scrollY at tail", w.Kind())
		}
		w.SetFocused(false)
		w.PrintIncomingMessage(noon, "bob", "again")
		if w.Unread() != 1 {
			t.Fatalf("%s: expected unfocused window to count unread, got %d", w.Kind(), w.Unread())
		}
	}
}

func TestPagedWindowCountsUnreadAndKeepsAnchor(t *testing.T) {
	chat := NewChatWindow("bob@localhost", Options{})
	if chat.Layout().Kind() != schema.LayoutSplit {
		t.Fatalf("expected chat windows to use a split layout")
	}
	chat.SetFocused(true)
	for i := 0; i < 10; i++ {
		chat.PrintIncomingMessage(noon, "bob", "m"+strconv.Itoa(i))
	}
	count := chat.Layout().Buffer().LineCount()
	chat.PageTo(count - 5)
	anchor := chat.Layout().ScrollY()

	chat.PrintIncomingMessage(noon, "bob", "late 1")
	chat.PrintIncomingMessage(noon, "bob", "late 2")
	if !chat.Layout().Paged() {
		t.Fatalf("expected paged window")
	}
	if chat.Layout().ScrollY() != anchor {
		t.Fatalf("expected scrollY %d, got %d", anchor, chat.Layout().ScrollY())
	}
	if chat.Unread() != 2 {
		t.Fatalf("expected 2 unread while paged, got %d", chat.Unread())
	}

	chat.MoveToEnd()
	if chat.Layout().Paged() || chat.Layout().ScrollY() != chat.Layout().Buffer().LineCount() {
		t.Fatalf("expected live at tail after move to end")
	}
	if chat.Unread() != 2 {
		t.Fatalf("expected move to end to keep unread, got %d", chat.Unread())
	}
	chat.MarkRead()
	if chat.Unread() != 0 {
		t.Fatalf("expected mark read to clear unread, got %d", chat.Unread())
	}
}

func TestWindowCapacityEvictsOldest(t *testing.T) {
	const capacity = 15
	w := NewConsoleWindow(Options{MaxLines: capacity})
	for i := 1; i <= capacity+10; i++ {
		w.SavePrintln("line " + strconv.Itoa(i))
	}
	buf := w.Layout().Buffer()
	if buf.LineCount() != capacity {
		t.Fatalf("expected %d lines, got %d", capacity, buf.LineCount())
	}
	first, _ := buf.LineAt(0)
	if first.Text != "line 11" {
		t.Fatalf("expected line 11 first, got %q", first.Text)
	}
}

func TestFreeMucConfigDetachesForm(t *testing.T) {
	form := dataform.New("Room configuration", []dataform.Field{{Var: "muc#roomconfig_roomname", Value: "lobby"}})
	w := NewMucConfigWindow("lobby@conference.localhost", form, Options{})
	if form.Holders() != 1 {
		t.Fatalf("expected window to hold the form, got %d holders", form.Holders())
	}
	if err := form.Set("muc#roomconfig_roomname", "Lobby"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !HasModifiedForm(w) {
		t.Fatalf("expected modified form to be reported")
	}

	Free(w)
	if form.Holders() != 0 {
		t.Fatalf("expected form detached on free, got %d holders", form.Holders())
	}
	if !form.Valid() {
		t.Fatalf("expected form to stay valid after free")
	}
	if _, err := form.Submit(); err != nil {
		t.Fatalf("expected form usable after free: %v", err)
	}
	if HasModifiedForm(w) {
		t.Fatalf("expected freed window to hold no form")
	}
}

func TestDoubleFreeAndUseAfterFreeAreFatal(t *testing.T) {
	w := NewChatWindow("bob@localhost", Options{})
	Free(w)
	if w.Layout() != nil {
		t.Fatalf("expected layout released")
	}
	expectInternalError(t, func() { Free(w) })
	expectInternalError(t, func() { w.SavePrintln("late") })
	expectInternalError(t, func() { w.Redraw() })
	if HasActiveSubwin(w) {
		t.Fatalf("expected freed window to have no active subwin")
	}
}

func TestDefaultSplitPolicyAndOverride(t *testing.T) {
	form := dataform.New("cfg", nil)
	for _, w := range allWindows(Options{}, form) {
		want := schema.LayoutSimple
		switch w.Kind() {
		case schema.WindowChat, schema.WindowMuc, schema.WindowMucConfig:
			want = schema.LayoutSplit
		}
		if w.Layout().Kind() != want {
			t.Fatalf("%s: expected %s layout, got %s", w.Kind(), want, w.Layout().Kind())
		}
		if HasActiveSubwin(w) != (want == schema.LayoutSplit) {
			t.Fatalf("%s: unexpected active subwin", w.Kind())
		}
	}
	opts := Options{SplitKinds: []schema.WindowKind{schema.WindowMuc}}
	if NewMucWindow("r@conference.localhost", opts).Layout().Kind() != schema.LayoutSplit {
		t.Fatalf("expected configured muc split layout")
	}
	if NewChatWindow("bob@localhost", opts).Layout().Kind() != schema.LayoutSimple {
		t.Fatalf("expected configured chat simple layout")
	}
}

func TestSubwinToggleOnSimpleIsNoop(t *testing.T) {
	w := NewConsoleWindow(Options{})
	w.SavePrintln("hello")
	before := *w.Layout().(*SimpleLayout)
	w.HideSubwin()
	w.ShowSubwin()
	after := *w.Layout().(*SimpleLayout)
	if before.scrollY != after.scrollY || before.paged != after.paged || before.buffer != after.buffer {
		t.Fatalf("expected simple layout state unchanged")
	}
	if HasActiveSubwin(w) {
		t.Fatalf("expected no active subwin on simple layout")
	}
}

func TestShowSubwinIdempotent(t *testing.T) {
	screen := newSimScreen(t, 30, 3)
	w := NewChatWindow("bob@localhost", Options{})
	view := testView(screen)
	view.SubCols = 8
	w.Attach(view)
	SetSubLines(w, []SubLine{{Text: "carol"}})
	w.HideSubwin()
	w.ShowSubwin()
	once := rowText(screen, 0)
	w.ShowSubwin()
	if twice := rowText(screen, 0); twice != once {
		t.Fatalf("expected same visible state, got %q then %q", once, twice)
	}
	if !HasActiveSubwin(w) {
		t.Fatalf("expected active subwin")
	}
}

func TestChatQueriesDefaultElsewhere(t *testing.T) {
	for _, w := range allWindows(Options{}, dataform.New("cfg", nil)) {
		if w.Kind() == schema.WindowChat {
			continue
		}
		if IsOTR(w) || IsTrusted(w) || HasChatResource(w) || ChatHistoryShown(w) {
			t.Fatalf("%s: expected chat queries to report false", w.Kind())
		}
		if w.Kind() != schema.WindowMucConfig && HasModifiedForm(w) {
			t.Fatalf("%s: expected no modified form", w.Kind())
		}
	}
}

func TestChatStateAndShowChars(t *testing.T) {
	chat := NewChatWindow("bob@localhost", Options{})
	chat.SetResource("laptop")
	if !HasChatResource(chat) || chat.Title() != "bob@localhost/laptop" {
		t.Fatalf("expected resource in title, got %q", chat.Title())
	}
	chat.PrintIncomingMessage(noon, "bob", "plain")
	chat.SetOTR(true)
	chat.PrintIncomingMessage(noon, "bob", "untrusted")
	chat.SetTrusted(true)
	chat.PrintIncomingMessage(noon, "bob", "trusted")
	if !IsOTR(chat) || !IsTrusted(chat) {
		t.Fatalf("expected otr and trusted")
	}
	chat.SetOTR(false)
	if IsTrusted(chat) {
		t.Fatalf("expected ending otr to clear trust")
	}
	chat.ClearResource()
	if HasChatResource(chat) {
		t.Fatalf("expected resource cleared")
	}
	chat.SetHistoryShown()
	if !ChatHistoryShown(chat) {
		t.Fatalf("expected history shown")
	}

	buf := chat.Layout().Buffer()
	for i, want := range []rune{'-', '!', '~'} {
		line, _ := buf.LineAt(i)
		if line.ShowChar != want {
			t.Fatalf("line %d: expected show char %q, got %q", i, want, line.ShowChar)
		}
		if line.Theme != schema.ThemeTextThem || line.Sender != "bob" {
			t.Fatalf("line %d: unexpected theme or sender: %+v", i, line)
		}
	}
}

func TestSavePrintStripsEscapesAndFillsTime(t *testing.T) {
	w := NewConsoleWindow(Options{Clock: fixedClock(noon)})
	w.SavePrint(PrintRequest{ShowChar: '-', Sender: "\x1b[31mbob\x1b[0m", Text: "\x1b[2Jhi\x1b]0;title\x07"})
	w.SaveNewline()
	buf := w.Layout().Buffer()
	line, _ := buf.LineAt(0)
	if line.Sender != "bob" || line.Text != "hi" {
		t.Fatalf("expected escape sequences stripped, got sender %q text %q", line.Sender, line.Text)
	}
	if !line.Time.Equal(noon) {
		t.Fatalf("expected clock time, got %v", line.Time)
	}
	blank, _ := buf.LineAt(1)
	if blank.Text != "" || !blank.Flags.Has(NoDate) {
		t.Fatalf("expected blank undated separator, got %+v", blank)
	}
}

func TestShowOperationsLeaveUnreadAlone(t *testing.T) {
	w := NewConsoleWindow(Options{Clock: fixedClock(noon)})
	w.ShowContact(schema.Contact{JID: "bob@localhost", Presence: schema.PresenceAway})
	w.ShowOccupant(schema.Occupant{Nick: "carol"})
	w.ShowOccupantInfo("lobby@conference.localhost", schema.Occupant{Nick: "carol", Role: "participant", Affiliation: "member"})
	w.ShowStatusString(StatusString{From: "bob@localhost", DefaultShow: schema.PresenceOnline})
	w.ShowInfo(schema.Contact{JID: "bob@localhost"})
	if w.Unread() != 0 {
		t.Fatalf("expected show operations to leave unread at 0, got %d", w.Unread())
	}
}

func TestShowContactRendersOneRow(t *testing.T) {
	screen := newSimScreen(t, 80, 2)
	w := NewConsoleWindow(Options{Clock: fixedClock(noon)})
	w.Attach(testView(screen))
	w.ShowContact(schema.Contact{
		JID:          "bob@localhost",
		Name:         "Bob",
		Presence:     schema.PresenceAway,
		Status:       "lunch",
		LastActivity: noon.Add(-(90*time.Minute + 5*time.Second)),
	})
	if got := rowText(screen, 0); got != `12:34 - Bob is away, idle 1h30m5s, "lunch"` {
		t.Fatalf("unexpected contact row: %q", got)
	}
	if got := cellColor(screen, 8, 0); got != itemColor(schema.ThemeAway) {
		t.Fatalf("expected away colour, got %v", got)
	}
}

func TestShowStatusStringFormats(t *testing.T) {
	screen := newSimScreen(t, 80, 3)
	w := NewConsoleWindow(Options{Clock: fixedClock(noon)})
	w.Attach(testView(screen))
	w.ShowStatusString(StatusString{From: "bob@localhost", Pre: "++", Show: schema.PresenceDND, Status: "busy"})
	w.ShowStatusString(StatusString{From: "carol@localhost", Pre: "--", DefaultShow: schema.PresenceOffline, LastActivity: noon.Add(-65 * time.Second)})
	if got := rowText(screen, 0); got != `12:34 - ++ bob@localhost is dnd, "busy"` {
		t.Fatalf("unexpected status row: %q", got)
	}
	if got := rowText(screen, 1); got != "12:34 - -- carol@localhost is offline, idle 1m5s" {
		t.Fatalf("unexpected status row: %q", got)
	}
	if got := cellColor(screen, 8, 0); got != itemColor(schema.ThemeDND) {
		t.Fatalf("expected dnd colour, got %v", got)
	}
	if got := cellColor(screen, 8, 1); got != itemColor(schema.ThemeOffline) {
		t.Fatalf("expected offline colour, got %v", got)
	}
}

func TestShowOccupantInfoBlock(t *testing.T) {
	screen := newSimScreen(t, 60, 7)
	w := NewMucWindow("lobby@conference.localhost", Options{Clock: fixedClock(noon), SplitKinds: []schema.WindowKind{schema.WindowChat}})
	w.Attach(testView(screen))
	w.ShowOccupantInfo("lobby@conference.localhost", schema.Occupant{
		Nick:        "carol",
		JID:         "carol@localhost",
		Role:        "moderator",
		Affiliation: "owner",
		Presence:    schema.PresenceChat,
		Status:      "here",
	})
	want := []string{
		`12:34 ! carol is chat, "here"`,
		"12:34 !   Jid: carol@localhost",
		"12:34 !   Room: lobby@conference.localhost",
		"12:34 !   Affiliation: owner",
		"12:34 !   Role: moderator",
		"12:34 -",
	}
	for y, line := range want {
		if got := rowText(screen, y); got != line {
			t.Fatalf("row %d: expected %q, got %q", y, line, got)
		}
	}
}

func TestShowInfoListsResourcesByPriority(t *testing.T) {
	screen := newSimScreen(t, 60, 8)
	w := NewChatWindow("bob@localhost", Options{Clock: fixedClock(noon)})
	w.Attach(testView(screen))
	w.ShowInfo(schema.Contact{
		JID:          "bob@localhost",
		Name:         "Bob",
		Subscription: "both",
		Presence:     schema.PresenceOnline,
		LastActivity: noon.Add(-2 * time.Minute),
		Resources: []schema.Resource{
			{Name: "phone", Priority: 0, Presence: schema.PresenceAway},
			{Name: "laptop", Priority: 10, Presence: schema.PresenceOnline, Status: "coding"},
		},
	})
	want := []string{
		"12:34 -",
		"12:34 - bob@localhost (Bob):",
		"12:34 - Subscription: both",
		"12:34 - Last activity: 2m0s",
		"12:34 - Resources:",
		`12:34 -   laptop (10), online, "coding"`,
		"12:34 -   phone (0), away",
	}
	for y, line := range want {
		if got := rowText(screen, y); got != line {
			t.Fatalf("row %d: expected %q, got %q", y, line, got)
		}
	}
}

func TestTitles(t *testing.T) {
	form := dataform.New("cfg", nil)
	want := map[schema.WindowKind]string{
		schema.WindowConsole:   "Console",
		schema.WindowChat:      "bob@localhost",
		schema.WindowMuc:       "lobby@conference.localhost",
		schema.WindowMucConfig: "lobby@conference.localhost config",
		schema.WindowPrivate:   "lobby@conference.localhost/carol",
		schema.WindowPlugin:    "clock",
		schema.WindowXML:       "XML Console",
	}
	for _, w := range allWindows(Options{}, form) {
		if w.Title() != want[w.Kind()] {
			t.Fatalf("%s: expected title %q, got %q", w.Kind(), want[w.Kind()], w.Title())
		}
	}
}
