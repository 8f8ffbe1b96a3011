package client

import "github.com/gdamore/tcell/v2"

// KeyKind identifies a decoded key press.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyCtrlA
	KeyCtrlE
	KeyCtrlW
	KeyCtrlU
	KeyCtrlK
	KeyCtrlC
	KeyCtrlD
	KeyCtrlL
	KeyEscape
)

// Key is one key press. Alt is set for Meta/Alt chords such as Alt-1 or
// Alt-PageUp.
type Key struct {
	Kind KeyKind
	Rune rune
	Alt  bool
}

// KeyFromTcell converts a tcell key event. Keys the client does not bind
// report false.
func KeyFromTcell(ev *tcell.EventKey) (Key, bool) {
	alt := ev.Modifiers()&tcell.ModAlt != 0
	k := Key{Alt: alt}
	switch ev.Key() {
	case tcell.KeyRune:
		k.Kind = KeyRune
		k.Rune = ev.Rune()
	case tcell.KeyEnter:
		k.Kind = KeyEnter
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		k.Kind = KeyBackspace
	case tcell.KeyDelete:
		k.Kind = KeyDelete
	case tcell.KeyLeft:
		k.Kind = KeyLeft
	case tcell.KeyRight:
		k.Kind = KeyRight
	case tcell.KeyUp:
		k.Kind = KeyUp
	case tcell.KeyDown:
		k.Kind = KeyDown
	case tcell.KeyHome:
		k.Kind = KeyHome
	case tcell.KeyEnd:
		k.Kind = KeyEnd
	case tcell.KeyPgUp:
		k.Kind = KeyPageUp
	case tcell.KeyPgDn:
		k.Kind = KeyPageDown
	case tcell.KeyTab:
		k.Kind = KeyTab
	case tcell.KeyCtrlA:
		k.Kind = KeyCtrlA
	case tcell.KeyCtrlE:
		k.Kind = KeyCtrlE
	case tcell.KeyCtrlW:
		k.Kind = KeyCtrlW
	case tcell.KeyCtrlU:
		k.Kind = KeyCtrlU
	case tcell.KeyCtrlK:
		k.Kind = KeyCtrlK
	case tcell.KeyCtrlC:
		k.Kind = KeyCtrlC
	case tcell.KeyCtrlD:
		k.Kind = KeyCtrlD
	case tcell.KeyCtrlL:
		k.Kind = KeyCtrlL
	case tcell.KeyEscape:
		k.Kind = KeyEscape
	default:
		return Key{}, false
	}
	return k, true
}

// altSlot maps Alt-1..Alt-9 to slots 1..9 and Alt-0 to slot 10.
func altSlot(k Key) (int, bool) {
	if !k.Alt || k.Kind != KeyRune || k.Rune < '0' || k.Rune > '9' {
		return 0, false
	}
	if k.Rune == '0' {
		return 10, true
	}
	return int(k.Rune - '0'), true
}
