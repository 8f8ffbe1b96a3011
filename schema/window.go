package schema

import (
	"fmt"
	"strings"
)

// WindowKind identifies the fixed kind of a window.
type WindowKind int

const (
	WindowConsole WindowKind = iota
	WindowChat
	WindowMuc
	WindowMucConfig
	WindowPrivate
	WindowPlugin
	WindowXML
)

var windowKindNames = map[WindowKind]string{
	WindowConsole:   "console",
	WindowChat:      "chat",
	WindowMuc:       "muc",
	WindowMucConfig: "muc-config",
	WindowPrivate:   "private",
	WindowPlugin:    "plugin",
	WindowXML:       "xml",
}

func (k WindowKind) String() string {
	if name, ok := windowKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(k))
}

// ParseWindowKind accepts the names used in configuration files.
func ParseWindowKind(value string) (WindowKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	for kind, name := range windowKindNames {
		if name == normalized {
			return kind, nil
		}
	}
	switch normalized {
	case "mucconfig", "room-config":
		return WindowMucConfig, nil
	case "room", "groupchat":
		return WindowMuc, nil
	case "xmlconsole":
		return WindowXML, nil
	}
	return 0, fmt.Errorf("unknown window kind %q", value)
}

// LayoutKind identifies the layout strategy of a window.
type LayoutKind int

const (
	LayoutSimple LayoutKind = iota
	LayoutSplit
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutSimple:
		return "simple"
	case LayoutSplit:
		return "split"
	default:
		return fmt.Sprintf("layout(%d)", int(k))
	}
}
