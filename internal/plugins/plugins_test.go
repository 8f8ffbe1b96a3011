package plugins

import (
	"errors"
	"testing"
	"time"

	"github.com/containerd/errdefs"
)

type fakeHost struct {
	console []string
	windows map[string][]string
	inputs  map[string]func(string)
	focused string
	notes   []string
	now     time.Time
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		windows: make(map[string][]string),
		inputs:  make(map[string]func(string)),
		now:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func (h *fakeHost) ConsShow(message string) { h.console = append(h.console, message) }
func (h *fakeHost) WinCreate(tag string, onInput func(string)) {
	h.windows[tag] = nil
	h.inputs[tag] = onInput
}
func (h *fakeHost) WinExists(tag string) bool { _, ok := h.windows[tag]; return ok }
func (h *fakeHost) WinFocus(tag string) error {
	if !h.WinExists(tag) {
		return errdefs.ErrNotFound
	}
	h.focused = tag
	return nil
}
func (h *fakeHost) WinPrint(tag, message string) error {
	if !h.WinExists(tag) {
		return errdefs.ErrNotFound
	}
	h.windows[tag] = append(h.windows[tag], message)
	return nil
}
func (h *fakeHost) Notify(title, message string) { h.notes = append(h.notes, title+": "+message) }
func (h *fakeHost) Now() time.Time               { return h.now }

func TestRegistryValidatesArgs(t *testing.T) {
	reg := NewRegistry()
	var got []string
	err := reg.Register(Command{Name: "greet", MinArgs: 1, MaxArgs: 2, Usage: "/greet <who> [how]", Run: func(args []string) error {
		got = args
		return nil
	}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if handled, err := reg.Run("/greet", nil); !handled || !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got handled=%v err=%v", handled, err)
	}
	if _, err := reg.Run("/greet", []string{"a", "b", "c"}); !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected too many args rejected, got %v", err)
	}
	if handled, err := reg.Run("/greet", []string{"bob"}); !handled || err != nil || len(got) != 1 {
		t.Fatalf("expected command to run, got handled=%v err=%v args=%v", handled, err, got)
	}
	if handled, _ := reg.Run("/missing", nil); handled {
		t.Fatalf("expected unknown command to be unhandled")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	cmd := Command{Name: "/x", MaxArgs: -1, Run: func([]string) error { return nil }}
	if err := reg.Register(cmd); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(cmd); !errors.Is(err, ErrCommandExists) {
		t.Fatalf("expected duplicate rejected, got %v", err)
	}
	if err := reg.Register(Command{Name: "/y"}); !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected missing callback rejected, got %v", err)
	}
	if handled, err := reg.Run("/x", []string{"1", "2", "3", "4"}); !handled || err != nil {
		t.Fatalf("expected unbounded args accepted, got %v", err)
	}
}

func TestSchedulerRejectsShortInterval(t *testing.T) {
	s := NewScheduler(nil, nil)
	if _, err := s.Every(time.Millisecond, func() {}); !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid interval, got %v", err)
	}
}

func TestSchedulerPostsCallbacks(t *testing.T) {
	posted := make(chan func(), 4)
	s := NewScheduler(func(fn func()) { posted <- fn }, nil)
	fired := make(chan struct{}, 4)
	cancel, err := s.Every(time.Second, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("Every: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}
	s.Start()
	defer s.Stop()
	select {
	case fn := <-posted:
		select {
		case <-fired:
			t.Fatalf("expected callback to wait for the event loop")
		default:
		}
		fn()
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for timer")
	}
	select {
	case <-fired:
	default:
		t.Fatalf("expected callback to run when posted fn runs")
	}
	cancel()
}

func TestClockPlugin(t *testing.T) {
	host := newFakeHost()
	m := NewManager(host, nil, nil)
	m.Load(&Clock{})
	if got := m.Loaded(); len(got) != 1 || got[0] != "clock" {
		t.Fatalf("expected clock loaded, got %v", got)
	}
	cmds := m.Commands()
	if len(cmds) != 1 || cmds[0].Name != "/clock" || cmds[0].Plugin() != "clock" {
		t.Fatalf("unexpected commands %+v", cmds)
	}
	if handled, err := m.Run("/clock", nil); !handled || err != nil {
		t.Fatalf("expected /clock to run, got %v", err)
	}
	if host.focused != ClockTag {
		t.Fatalf("expected clock window focused")
	}
	if lines := host.windows[ClockTag]; len(lines) != 1 || lines[0] != "It is 09:30" {
		t.Fatalf("unexpected clock window %v", lines)
	}
	host.inputs[ClockTag]("hello")
	if lines := host.windows[ClockTag]; len(lines) != 2 {
		t.Fatalf("expected input reply, got %v", lines)
	}
	if m.scheduler.Len() != 1 {
		t.Fatalf("expected clock timer registered")
	}
	m.Stop()
	if m.scheduler.Len() != 0 {
		t.Fatalf("expected timers cancelled on stop")
	}
}

type failing struct{}

func (failing) Name() string        { return "broken" }
func (failing) Init(api *API) error { return errors.New("boom") }

func TestManagerSkipsFailingPlugin(t *testing.T) {
	host := newFakeHost()
	m := NewManager(host, nil, nil)
	m.Load(failing{}, &Clock{})
	if got := m.Loaded(); len(got) != 1 || got[0] != "clock" {
		t.Fatalf("expected only clock loaded, got %v", got)
	}
}

func TestAPIForwardsToHost(t *testing.T) {
	host := newFakeHost()
	m := NewManager(host, nil, nil)
	api := &API{name: "demo", manager: m}
	api.ConsShow("hello")
	api.Notify("ding")
	if len(host.console) != 1 || host.notes[0] != "demo: ding" {
		t.Fatalf("unexpected host state %v %v", host.console, host.notes)
	}
	if err := api.RegisterTimed(0, func() {}); err == nil {
		t.Fatalf("expected invalid timer rejected")
	}
}
