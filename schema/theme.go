package schema

import "strings"

// DefaultTheme is the default UI theme name.
const DefaultTheme ThemeName = "outrun"

var themeNames = []ThemeName{
	"outrun",
	"gruvbox",
	"tokyo-midnight",
}

// AvailableThemes returns the supported theme names.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "outrun", "outrun-electric":
		return "outrun", true
	case "gruvbox":
		return "gruvbox", true
	case "tokyo-midnight", "tokyo":
		return "tokyo-midnight", true
	default:
		return "", false
	}
}

// ThemeItem tags a piece of UI text with a semantic colour slot.
type ThemeItem int

const (
	ThemeText ThemeItem = iota
	ThemeTextMe
	ThemeTextThem
	ThemeTime
	ThemeMe
	ThemeThem
	ThemeError
	ThemeIncoming
	ThemeRoomInfo
	ThemeOnline
	ThemeChat
	ThemeAway
	ThemeXA
	ThemeDND
	ThemeOffline
	ThemeOTRStarted
	ThemeOTRTrusted
	ThemeOTRUntrusted
	ThemeTitleText
	ThemeTitleBrackets
	ThemeStatusText
	ThemeStatusBrackets
	ThemeStatusActive
	ThemeStatusNew
	ThemeInputText
	ThemeSplitBorder
	ThemeRosterHeader
)

// PresenceTheme returns the colour slot for a presence value.
func PresenceTheme(p Presence) ThemeItem {
	switch p {
	case PresenceOnline:
		return ThemeOnline
	case PresenceChat:
		return ThemeChat
	case PresenceAway:
		return ThemeAway
	case PresenceXA:
		return ThemeXA
	case PresenceDND:
		return ThemeDND
	default:
		return ThemeOffline
	}
}

// NormalizePresence validates a presence string as typed by a user.
func NormalizePresence(value string) (Presence, error) {
	switch Presence(strings.ToLower(strings.TrimSpace(value))) {
	case PresenceOnline:
		return PresenceOnline, nil
	case PresenceChat:
		return PresenceChat, nil
	case PresenceAway:
		return PresenceAway, nil
	case PresenceXA:
		return PresenceXA, nil
	case PresenceDND:
		return PresenceDND, nil
	default:
		return "", ErrInvalidPresence
	}
}
