// Package notifier sends desktop notifications for messages that arrive in
// windows the user is not looking at.
package notifier

import (
	"sync"

	"github.com/gen2brain/beeep"

	"pkt.systems/pslog"
)

// AppName is shown by notification daemons that display a sender.
const AppName = "prattle"

// Notifier delivers one alert.
type Notifier interface {
	Notify(title, message string) error
}

var (
	notifyMu sync.Mutex
	notifyFn = beeep.Notify
)

// SetNotifier swaps the delivery function. Tests use it to avoid real popups.
func SetNotifier(fn func(title, message string, icon any) error) {
	notifyMu.Lock()
	notifyFn = fn
	notifyMu.Unlock()
}

// ResetNotifier restores beeep delivery.
func ResetNotifier() {
	SetNotifier(beeep.Notify)
}

// Desktop notifies through the platform notification service.
type Desktop struct {
	log pslog.Logger
}

// NewDesktop constructs a desktop notifier.
func NewDesktop(logger pslog.Logger) *Desktop {
	beeep.AppName = AppName
	return &Desktop{log: logger}
}

// Notify sends title and message. Failures are logged and returned.
func (d *Desktop) Notify(title, message string) error {
	notifyMu.Lock()
	fn := notifyFn
	notifyMu.Unlock()
	err := fn(title, message, "")
	if d.log != nil {
		if err != nil {
			d.log.Warn("notify failed", "title", title, "err", err)
		} else {
			d.log.Debug("notify sent", "title", title)
		}
	}
	return err
}

// Nop drops every alert. SSH sessions use it since the desktop belongs to
// the server host, not the remote user.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(string, string) error { return nil }
