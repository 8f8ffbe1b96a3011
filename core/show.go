package core

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"pkt.systems/prattle/schema"
)

// StatusString describes a presence change line.
type StatusString struct {
	From         string
	Show         schema.Presence
	Status       string
	LastActivity time.Time
	// Pre is printed before From, usually "++" or "--".
	Pre string
	// DefaultShow is used when Show is empty.
	DefaultShow schema.Presence
}

func presenceOrOffline(p schema.Presence) schema.Presence {
	if p == "" {
		return schema.PresenceOffline
	}
	return p
}

func idleSince(now, last time.Time) string {
	span := now.Sub(last)
	if span < 0 {
		span = 0
	}
	hours := int(span / time.Hour)
	span -= time.Duration(hours) * time.Hour
	minutes := int(span / time.Minute)
	span -= time.Duration(minutes) * time.Minute
	seconds := int(span / time.Second)
	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// cont appends a continuation fragment to the current row.
func (w *window) cont(theme schema.ThemeItem, text string) {
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoDate | NoEOL, Theme: theme, Text: text})
}

// endRow terminates the current row.
func (w *window) endRow(theme schema.ThemeItem) {
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoDate, Theme: theme})
}

// ShowContact prints a one-row roster summary of contact.
func (w *window) ShowContact(contact schema.Contact) {
	presence := presenceOrOffline(contact.Presence)
	theme := schema.PresenceTheme(presence)
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoEOL, Theme: theme, Text: contact.DisplayName()})
	w.cont(theme, " is "+string(presence))
	if !contact.LastActivity.IsZero() {
		w.cont(theme, ", idle "+idleSince(w.now(), contact.LastActivity))
	}
	if contact.Status != "" {
		w.cont(theme, fmt.Sprintf(", %q", contact.Status))
	}
	w.endRow(theme)
}

// ShowOccupant prints a one-row summary of a room occupant.
func (w *window) ShowOccupant(occupant schema.Occupant) {
	presence := presenceOrOffline(occupant.Presence)
	theme := schema.PresenceTheme(presence)
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoEOL, Theme: theme, Text: occupant.Nick})
	w.cont(theme, " is "+string(presence))
	if occupant.Status != "" {
		w.cont(theme, fmt.Sprintf(", %q", occupant.Status))
	}
	w.endRow(theme)
}

// ShowOccupantInfo prints the detailed block for an occupant of room.
func (w *window) ShowOccupantInfo(room string, occupant schema.Occupant) {
	presence := presenceOrOffline(occupant.Presence)
	theme := schema.PresenceTheme(presence)
	w.appendLine(PrintRequest{ShowChar: '!', Flags: NoEOL, Theme: theme, Text: occupant.Nick})
	w.appendLine(PrintRequest{ShowChar: '!', Flags: NoDate | NoEOL, Theme: theme, Text: " is " + string(presence)})
	if occupant.Status != "" {
		w.appendLine(PrintRequest{ShowChar: '!', Flags: NoDate | NoEOL, Theme: theme, Text: fmt.Sprintf(", %q", occupant.Status)})
	}
	w.endRow(theme)
	if occupant.JID != "" {
		w.appendLine(PrintRequest{ShowChar: '!', Theme: schema.ThemeText, Text: "  Jid: " + occupant.JID})
	}
	if room != "" {
		w.appendLine(PrintRequest{ShowChar: '!', Theme: schema.ThemeText, Text: "  Room: " + room})
	}
	w.appendLine(PrintRequest{ShowChar: '!', Theme: schema.ThemeText, Text: "  Affiliation: " + occupant.Affiliation})
	w.appendLine(PrintRequest{ShowChar: '!', Theme: schema.ThemeText, Text: "  Role: " + occupant.Role})
	w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText})
}

// ShowStatusString prints a presence change such as "++ bob@localhost is away".
func (w *window) ShowStatusString(req StatusString) {
	var theme schema.ThemeItem
	switch {
	case req.Show != "":
		theme = schema.PresenceTheme(req.Show)
	case req.DefaultShow == schema.PresenceOnline:
		theme = schema.ThemeOnline
	default:
		theme = schema.ThemeOffline
	}
	head := req.From
	if req.Pre != "" {
		head = req.Pre + " " + req.From
	}
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoEOL, Theme: theme, Text: head})
	show := req.Show
	if show == "" {
		show = req.DefaultShow
	}
	if show != "" {
		w.cont(theme, " is "+string(show))
	}
	if !req.LastActivity.IsZero() {
		w.cont(theme, ", idle "+idleSince(w.now(), req.LastActivity))
	}
	if req.Status != "" {
		w.cont(theme, fmt.Sprintf(", %q", req.Status))
	}
	w.endRow(theme)
}

// ShowInfo prints the detailed block for a contact including its resources.
func (w *window) ShowInfo(contact schema.Contact) {
	presence := presenceOrOffline(contact.Presence)
	theme := schema.PresenceTheme(presence)
	w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText})
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoEOL, Theme: theme, Text: contact.JID})
	if contact.Name != "" {
		w.cont(theme, " ("+contact.Name+")")
	}
	w.appendLine(PrintRequest{ShowChar: '-', Flags: NoDate, Theme: schema.ThemeText, Text: ":"})
	if contact.Subscription != "" {
		w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText, Text: "Subscription: " + contact.Subscription})
	}
	if !contact.LastActivity.IsZero() {
		w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText, Text: "Last activity: " + idleSince(w.now(), contact.LastActivity)})
	}
	if len(contact.Resources) == 0 {
		return
	}
	w.appendLine(PrintRequest{ShowChar: '-', Theme: schema.ThemeText, Text: "Resources:"})
	resources := slices.Clone(contact.Resources)
	slices.SortStableFunc(resources, func(a, b schema.Resource) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	for _, res := range resources {
		resPresence := presenceOrOffline(res.Presence)
		resTheme := schema.PresenceTheme(resPresence)
		text := fmt.Sprintf("  %s (%d), %s", res.Name, res.Priority, resPresence)
		w.appendLine(PrintRequest{ShowChar: '-', Flags: NoEOL, Theme: resTheme, Text: text})
		if res.Status != "" {
			w.cont(resTheme, fmt.Sprintf(", %q", res.Status))
		}
		w.endRow(resTheme)
	}
}
