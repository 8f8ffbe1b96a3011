package core

import (
	"time"

	"github.com/charmbracelet/x/ansi"

	"pkt.systems/prattle/schema"
)

// PrintRequest is one formatted line to store in a window.
// A zero Time is replaced with the window clock.
type PrintRequest struct {
	ShowChar rune
	Time     time.Time
	Flags    LineFlags
	Theme    schema.ThemeItem
	Sender   string
	Text     string
}

func (w *window) appendLine(req PrintRequest) bool {
	w.mustLive("print")
	ts := req.Time
	if ts.IsZero() {
		ts = w.now()
	}
	return w.layout.AppendAndAdvance(BufferLine{
		ShowChar: req.ShowChar,
		Time:     ts,
		Flags:    req.Flags,
		Theme:    req.Theme,
		Sender:   ansi.Strip(req.Sender),
		Text:     ansi.Strip(req.Text),
	})
}

// SavePrint stores a fully described line.
func (w *window) SavePrint(req PrintRequest) {
	w.appendLine(req)
}

// SavePrintln stores message with the default show-char and theme.
func (w *window) SavePrintln(message string) {
	w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText, Text: message})
}

// SaveNewline stores a blank separator line.
func (w *window) SaveNewline() {
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoDate, Theme: schema.ThemeText})
}

// PrintIncomingMessage stores a received message. Unread grows when the
// window is not focused or the line landed behind a paged view.
func (w *window) PrintIncomingMessage(ts time.Time, sender, message string) {
	w.printIncoming('-', ts, sender, message)
}

func (w *window) printIncoming(showChar rune, ts time.Time, sender, message string) {
	shown := w.appendLine(PrintRequest{
		ShowChar: showChar,
		Time:     ts,
		Theme:    schema.ThemeTextThem,
		Sender:   sender,
		Text:     message,
	})
	if !shown || !w.focused {
		w.unread++
	}
}

// PrintIncomingMessage stores a received message, marking encrypted sessions
// with '~' when trusted and '!' when not.
func (w *ChatWindow) PrintIncomingMessage(ts time.Time, sender, message string) {
	showChar := '-'
	if w.otr {
		showChar = '!'
		if w.trusted {
			showChar = '~'
		}
	}
	w.printIncoming(showChar, ts, sender, message)
}

// PrintOutgoing stores a message sent by the local user.
func PrintOutgoing(w Window, ts time.Time, me, message string) {
	showChar := '-'
	if chat, ok := w.(*ChatWindow); ok && chat.otr {
		showChar = '!'
		if chat.trusted {
			showChar = '~'
		}
	}
	w.SavePrint(PrintRequest{
		ShowChar: showChar,
		Time:     ts,
		Theme:    schema.ThemeTextMe,
		Sender:   me,
		Text:     message,
	})
}

// PrintError stores an error line.
func PrintError(w Window, message string) {
	w.SavePrint(PrintRequest{ShowChar: '-', Theme: schema.ThemeError, Text: message})
}
