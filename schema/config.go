package schema

const (
	// DefaultBufferMaxLines is the default per-window scrollback limit.
	DefaultBufferMaxLines = 1000
	// DefaultRosterPercent is the default roster panel width as a share of the terminal.
	DefaultRosterPercent = 20
	// DefaultOccupantsPercent is the default occupants panel width as a share of the terminal.
	DefaultOccupantsPercent = 15
	// DefaultTimeFormat is the Go layout used for line timestamps.
	DefaultTimeFormat = "15:04:05"
	// DefaultDomain is the JID domain served by the in-process hub.
	DefaultDomain = "localhost"
	// DefaultHistoryLines bounds stored direct-message history per peer.
	DefaultHistoryLines = 200
)

// DefaultSplitKinds lists the window kinds that get a Split layout unless configured otherwise.
func DefaultSplitKinds() []WindowKind {
	return []WindowKind{WindowChat, WindowMuc, WindowMucConfig}
}
