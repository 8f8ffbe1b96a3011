// Package theme maps semantic theme items to terminal styles.
package theme

import (
	"github.com/gdamore/tcell/v2"

	"pkt.systems/prattle/schema"
)

type rgb struct {
	r int32
	g int32
	b int32
}

func (c rgb) color() tcell.Color {
	return tcell.NewRGBColor(c.r, c.g, c.b)
}

type palette struct {
	Name      schema.ThemeName
	BarBG     rgb
	BarFG     rgb
	Accent    rgb
	AccentFG  rgb
	Text      rgb
	Meta      rgb
	Me        rgb
	Them      rgb
	Error     rgb
	Incoming  rgb
	RoomInfo  rgb
	Online    rgb
	Away      rgb
	XA        rgb
	DND       rgb
	Offline   rgb
	Trusted   rgb
	Untrusted rgb
}

var palettes = map[schema.ThemeName]palette{
	"outrun": {
		Name:      "outrun",
		BarBG:     rgb{r: 32, g: 8, b: 56},
		BarFG:     rgb{r: 240, g: 241, b: 255},
		Accent:    rgb{r: 0, g: 229, b: 255},
		AccentFG:  rgb{r: 10, g: 13, b: 23},
		Text:      rgb{r: 240, g: 241, b: 255},
		Meta:      rgb{r: 154, g: 163, b: 178},
		Me:        rgb{r: 112, g: 214, b: 255},
		Them:      rgb{r: 255, g: 91, b: 189},
		Error:     rgb{r: 255, g: 107, b: 107},
		Incoming:  rgb{r: 154, g: 182, b: 255},
		RoomInfo:  rgb{r: 110, g: 136, b: 255},
		Online:    rgb{r: 80, g: 250, b: 123},
		Away:      rgb{r: 255, g: 203, b: 107},
		XA:        rgb{r: 255, g: 159, b: 67},
		DND:       rgb{r: 255, g: 107, b: 107},
		Offline:   rgb{r: 60, g: 79, b: 184},
		Trusted:   rgb{r: 80, g: 250, b: 123},
		Untrusted: rgb{r: 255, g: 107, b: 107},
	},
	"gruvbox": {
		Name:      "gruvbox",
		BarBG:     rgb{r: 60, g: 56, b: 54},
		BarFG:     rgb{r: 235, g: 219, b: 178},
		Accent:    rgb{r: 250, g: 189, b: 47},
		AccentFG:  rgb{r: 40, g: 40, b: 40},
		Text:      rgb{r: 235, g: 219, b: 178},
		Meta:      rgb{r: 146, g: 131, b: 116},
		Me:        rgb{r: 131, g: 165, b: 152},
		Them:      rgb{r: 211, g: 134, b: 155},
		Error:     rgb{r: 251, g: 73, b: 52},
		Incoming:  rgb{r: 142, g: 192, b: 124},
		RoomInfo:  rgb{r: 214, g: 93, b: 14},
		Online:    rgb{r: 184, g: 187, b: 38},
		Away:      rgb{r: 250, g: 189, b: 47},
		XA:        rgb{r: 254, g: 128, b: 25},
		DND:       rgb{r: 251, g: 73, b: 52},
		Offline:   rgb{r: 75, g: 110, b: 166},
		Trusted:   rgb{r: 184, g: 187, b: 38},
		Untrusted: rgb{r: 251, g: 73, b: 52},
	},
	"tokyo-midnight": {
		Name:      "tokyo-midnight",
		BarBG:     rgb{r: 26, g: 27, b: 38},
		BarFG:     rgb{r: 192, g: 202, b: 245},
		Accent:    rgb{r: 122, g: 162, b: 247},
		AccentFG:  rgb{r: 26, g: 27, b: 38},
		Text:      rgb{r: 192, g: 202, b: 245},
		Meta:      rgb{r: 127, g: 133, b: 163},
		Me:        rgb{r: 125, g: 207, b: 255},
		Them:      rgb{r: 187, g: 154, b: 247},
		Error:     rgb{r: 247, g: 118, b: 142},
		Incoming:  rgb{r: 158, g: 206, b: 106},
		RoomInfo:  rgb{r: 122, g: 162, b: 247},
		Online:    rgb{r: 158, g: 206, b: 106},
		Away:      rgb{r: 224, g: 175, b: 104},
		XA:        rgb{r: 255, g: 158, b: 100},
		DND:       rgb{r: 247, g: 118, b: 142},
		Offline:   rgb{r: 59, g: 79, b: 159},
		Trusted:   rgb{r: 158, g: 206, b: 106},
		Untrusted: rgb{r: 247, g: 118, b: 142},
	},
}

// Theme resolves theme items to styles.
type Theme struct {
	name   schema.ThemeName
	styles map[schema.ThemeItem]tcell.Style
}

// ForName returns the named theme, falling back to the default theme.
func ForName(name schema.ThemeName) *Theme {
	if name == "" {
		name = schema.DefaultTheme
	}
	p, ok := palettes[name]
	if !ok {
		p = palettes[schema.DefaultTheme]
	}
	return build(p)
}

// Name returns the resolved theme name.
func (t *Theme) Name() schema.ThemeName {
	return t.name
}

// Style returns the style for item. Unknown items use the plain text style.
func (t *Theme) Style(item schema.ThemeItem) tcell.Style {
	if style, ok := t.styles[item]; ok {
		return style
	}
	return t.styles[schema.ThemeText]
}

func build(p palette) *Theme {
	base := tcell.StyleDefault
	fg := func(c rgb) tcell.Style { return base.Foreground(c.color()) }
	bar := base.Background(p.BarBG.color()).Foreground(p.BarFG.color())
	styles := map[schema.ThemeItem]tcell.Style{
		schema.ThemeText:           fg(p.Text),
		schema.ThemeTextMe:         fg(p.Text),
		schema.ThemeTextThem:       fg(p.Text),
		schema.ThemeTime:           fg(p.Meta),
		schema.ThemeMe:             fg(p.Me).Bold(true),
		schema.ThemeThem:           fg(p.Them).Bold(true),
		schema.ThemeError:          fg(p.Error),
		schema.ThemeIncoming:       fg(p.Incoming),
		schema.ThemeRoomInfo:       fg(p.RoomInfo),
		schema.ThemeOnline:         fg(p.Online),
		schema.ThemeChat:           fg(p.Online).Bold(true),
		schema.ThemeAway:           fg(p.Away),
		schema.ThemeXA:             fg(p.XA),
		schema.ThemeDND:            fg(p.DND),
		schema.ThemeOffline:        fg(p.Offline),
		schema.ThemeOTRStarted:     bar.Foreground(p.Accent.color()),
		schema.ThemeOTRTrusted:     bar.Foreground(p.Trusted.color()),
		schema.ThemeOTRUntrusted:   bar.Foreground(p.Untrusted.color()),
		schema.ThemeTitleText:      bar.Bold(true),
		schema.ThemeTitleBrackets:  bar.Foreground(p.Accent.color()),
		schema.ThemeStatusText:     bar,
		schema.ThemeStatusBrackets: bar.Foreground(p.Accent.color()),
		schema.ThemeStatusActive:   bar.Foreground(p.Meta.color()),
		schema.ThemeStatusNew:      base.Background(p.Accent.color()).Foreground(p.AccentFG.color()).Bold(true),
		schema.ThemeInputText:      fg(p.Text),
		schema.ThemeSplitBorder:    fg(p.Meta),
		schema.ThemeRosterHeader:   fg(p.Accent).Bold(true),
	}
	return &Theme{name: p.Name, styles: styles}
}
