package plugins

import (
	"context"
	"time"

	"pkt.systems/pslog"
)

// Host is the client surface a plugin may drive. Every method is called on
// the client's event loop.
type Host interface {
	ConsShow(message string)
	WinCreate(tag string, onInput func(line string))
	WinExists(tag string) bool
	WinFocus(tag string) error
	WinPrint(tag, message string) error
	Notify(title, message string)
	Now() time.Time
}

// Plugin is a compiled-in extension.
type Plugin interface {
	Name() string
	Init(api *API) error
}

// API is handed to one plugin during Init.
type API struct {
	name    string
	manager *Manager
}

// ConsShow prints message in the console window.
func (a *API) ConsShow(message string) { a.manager.host.ConsShow(message) }

// RegisterCommand adds a slash command owned by the plugin.
func (a *API) RegisterCommand(cmd Command) error {
	cmd.plugin = a.name
	return a.manager.registry.Register(cmd)
}

// RegisterTimed runs fn every interval on the event loop.
func (a *API) RegisterTimed(interval time.Duration, fn func()) error {
	cancel, err := a.manager.scheduler.Every(interval, fn)
	if err != nil {
		return err
	}
	a.manager.cancels = append(a.manager.cancels, cancel)
	return nil
}

// Notify raises a desktop notification titled with the plugin name.
func (a *API) Notify(message string) { a.manager.host.Notify(a.name, message) }

// WinCreate opens a plugin window identified by tag; lines typed into it go
// to onInput.
func (a *API) WinCreate(tag string, onInput func(line string)) {
	a.manager.host.WinCreate(tag, onInput)
}

// WinExists reports whether the plugin window is open.
func (a *API) WinExists(tag string) bool { return a.manager.host.WinExists(tag) }

// WinFocus switches to the plugin window.
func (a *API) WinFocus(tag string) error { return a.manager.host.WinFocus(tag) }

// WinPrint appends message to the plugin window.
func (a *API) WinPrint(tag, message string) error { return a.manager.host.WinPrint(tag, message) }

// Now returns the client clock.
func (a *API) Now() time.Time { return a.manager.host.Now() }

// Manager loads plugins and owns their commands and timers.
type Manager struct {
	host      Host
	registry  *Registry
	scheduler *Scheduler
	cancels   []func()
	loaded    []string
	log       pslog.Logger
}

// NewManager constructs a manager. post queues timed callbacks on the event loop.
func NewManager(host Host, post func(func()), logger pslog.Logger) *Manager {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Manager{
		host:      host,
		registry:  NewRegistry(),
		scheduler: NewScheduler(post, logger),
		log:       logger,
	}
}

// Load initialises each plugin. A failing plugin is logged and skipped.
func (m *Manager) Load(plugins ...Plugin) {
	for _, p := range plugins {
		if err := p.Init(&API{name: p.Name(), manager: m}); err != nil {
			m.log.Warn("plugin init failed", "plugin", p.Name(), "err", err)
			continue
		}
		m.loaded = append(m.loaded, p.Name())
		m.log.Debug("plugin loaded", "plugin", p.Name())
	}
}

// Loaded returns the names of the initialised plugins.
func (m *Manager) Loaded() []string { return append([]string(nil), m.loaded...) }

// Commands lists plugin commands.
func (m *Manager) Commands() []Command { return m.registry.Commands() }

// Run dispatches a plugin command; false means no plugin owns name.
func (m *Manager) Run(name string, args []string) (bool, error) {
	return m.registry.Run(name, args)
}

// Start begins firing timed callbacks.
func (m *Manager) Start() { m.scheduler.Start() }

// Stop cancels every timer and stops the scheduler.
func (m *Manager) Stop() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.scheduler.Stop()
}
