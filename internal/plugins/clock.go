package plugins

import "time"

// ClockTag identifies the clock plugin window.
const ClockTag = "clock"

// Clock prints the time into its own window every minute once opened with /clock.
type Clock struct {
	// Interval defaults to one minute.
	Interval time.Duration
	Format   string
}

// Name returns "clock".
func (c *Clock) Name() string { return "clock" }

// Init registers /clock and the ticker.
func (c *Clock) Init(api *API) error {
	format := c.Format
	if format == "" {
		format = "15:04"
	}
	interval := c.Interval
	if interval == 0 {
		interval = time.Minute
	}
	err := api.RegisterCommand(Command{
		Name:    "/clock",
		MaxArgs: 0,
		Usage:   "/clock",
		Help:    "Open the clock window.",
		Run: func([]string) error {
			if !api.WinExists(ClockTag) {
				api.WinCreate(ClockTag, func(line string) {
					_ = api.WinPrint(ClockTag, "the clock only tells the time, not "+line)
				})
			}
			if err := api.WinFocus(ClockTag); err != nil {
				return err
			}
			return api.WinPrint(ClockTag, "It is "+api.Now().Format(format))
		},
	})
	if err != nil {
		return err
	}
	return api.RegisterTimed(interval, func() {
		if api.WinExists(ClockTag) {
			_ = api.WinPrint(ClockTag, api.Now().Format(format))
		}
	})
}
