package core

import "pkt.systems/prattle/schema"

// MetricsConfig holds the side panel policy.
type MetricsConfig struct {
	RosterPercent    int
	OccupantsPercent int
	ShowRoster       bool
	ShowOccupants    bool
}

// Metrics derives side panel widths from the terminal size. It is owned by a
// terminal session, initialised with the terminal size, and invalidated or
// resized when the terminal changes.
type Metrics struct {
	cfg         MetricsConfig
	width       int
	height      int
	initialized bool
}

// NewMetrics creates uninitialised metrics. Percentages outside 1..99 use the defaults.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.RosterPercent <= 0 || cfg.RosterPercent >= 100 {
		cfg.RosterPercent = schema.DefaultRosterPercent
	}
	if cfg.OccupantsPercent <= 0 || cfg.OccupantsPercent >= 100 {
		cfg.OccupantsPercent = schema.DefaultOccupantsPercent
	}
	return &Metrics{cfg: cfg}
}

// Init records the terminal size.
func (m *Metrics) Init(width, height int) {
	m.width = max(width, 0)
	m.height = max(height, 0)
	m.initialized = true
}

// Resize records a new terminal size.
func (m *Metrics) Resize(width, height int) {
	m.Init(width, height)
}

// Invalidate forgets the terminal size until the next Init.
func (m *Metrics) Invalidate() {
	m.width, m.height = 0, 0
	m.initialized = false
}

// Initialized reports whether a terminal size is known.
func (m *Metrics) Initialized() bool { return m.initialized }

// Size returns the recorded terminal size.
func (m *Metrics) Size() (int, int) { return m.width, m.height }

// RosterCols returns the roster panel width, zero when hidden or uninitialised.
func (m *Metrics) RosterCols() int {
	if !m.initialized || !m.cfg.ShowRoster {
		return 0
	}
	return percentCols(m.width, m.cfg.RosterPercent)
}

// OccupantCols returns the occupants panel width, zero when hidden or uninitialised.
func (m *Metrics) OccupantCols() int {
	if !m.initialized || !m.cfg.ShowOccupants {
		return 0
	}
	return percentCols(m.width, m.cfg.OccupantsPercent)
}

// SetRosterVisible toggles the roster panel.
func (m *Metrics) SetRosterVisible(visible bool) { m.cfg.ShowRoster = visible }

// SetOccupantsVisible toggles the occupants panel.
func (m *Metrics) SetOccupantsVisible(visible bool) { m.cfg.ShowOccupants = visible }

// RosterVisible reports whether the roster panel is enabled.
func (m *Metrics) RosterVisible() bool { return m.cfg.ShowRoster }

// OccupantsVisible reports whether the occupants panel is enabled.
func (m *Metrics) OccupantsVisible() bool { return m.cfg.ShowOccupants }

// SubCols returns the side panel width for a window of kind.
func (m *Metrics) SubCols(kind schema.WindowKind) int {
	if kind == schema.WindowMuc {
		return m.OccupantCols()
	}
	return m.RosterCols()
}

func percentCols(width, percent int) int {
	if width <= 0 {
		return 0
	}
	return (width*percent + 99) / 100
}
