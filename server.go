// Package prattle composes the hub, the account store and the SSH front end
// into a runnable chat server, and builds the per-user terminal sessions
// shared by the SSH and local modes.
package prattle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"pkt.systems/prattle/client"
	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/internal/auth"
	"pkt.systems/prattle/internal/chatlog"
	"pkt.systems/prattle/internal/hub"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/internal/plugins"
	"pkt.systems/prattle/internal/prefs"
	"pkt.systems/prattle/internal/version"
	"pkt.systems/prattle/schema"
	"pkt.systems/prattle/sshserver"
	"pkt.systems/pslog"
)

// Server composes the hub and the SSH front end.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	SSH     sshserver.Config
	Auth    AuthConfig
	Hub     HubConfig
	Session SessionConfig
}

// AuthConfig defines account storage settings.
type AuthConfig struct {
	UserFile  string
	SeedUsers []appconfig.SeedUser
}

// HubConfig configures the message hub. An empty HistoryDir keeps history in memory.
type HubConfig struct {
	Domain       string
	HistoryLines int
	HistoryDir   string
}

// SessionConfig is applied to every terminal session.
type SessionConfig struct {
	// PrefsDir enables persisted per-user preferences.
	PrefsDir string
	// Theme applies to users who have not picked one.
	Theme               schema.ThemeName
	MaxLines            int
	SplitKinds          []schema.WindowKind
	RosterPercent       int
	OccupantsPercent    int
	TimeFormat          string
	ChatHistoryLines    int
	DisableAuditLogging bool
	// Plugins returns fresh plugin instances for one session.
	Plugins  func() []plugins.Plugin
	Notifier notifier.Notifier
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableSSH bool
	logger    pslog.Logger
}

// WithSSH enables the SSH server.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// WithLogger sets the logger used by the stores and the hub.
func WithLogger(logger pslog.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = logger }
}

// NewHub builds the hub with its direct-message history.
func NewHub(cfg HubConfig, logger pslog.Logger) (*hub.Hub, error) {
	var store *chatlog.Store
	if cfg.HistoryDir != "" {
		s, err := chatlog.NewStoreWithLogger(cfg.HistoryDir, logger)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		store = s
	}
	return hub.New(hub.Options{
		Domain:  cfg.Domain,
		History: chatlog.NewLog(store, cfg.HistoryLines, logger),
		Logger:  logger,
	}), nil
}

// Sessions creates terminal sessions against one hub.
type Sessions struct {
	hub   *hub.Hub
	cfg   SessionConfig
	prefs *prefs.Store
	log   pslog.Logger
}

var _ sshserver.SessionStarter = (*Sessions)(nil)

// NewSessions prepares session creation for h.
func NewSessions(h *hub.Hub, cfg SessionConfig, logger pslog.Logger) (*Sessions, error) {
	if h == nil {
		return nil, errors.New("hub is required")
	}
	s := &Sessions{hub: h, cfg: cfg, log: logger}
	if cfg.PrefsDir != "" {
		store, err := prefs.NewStore(cfg.PrefsDir, logger)
		if err != nil {
			return nil, fmt.Errorf("prefs store: %w", err)
		}
		s.prefs = store
	}
	return s, nil
}

// StartSession registers userID with the hub and builds its client on screen.
func (s *Sessions) StartSession(ctx context.Context, userID schema.UserID, screen tcell.Screen) (*client.Client, error) {
	if err := s.hub.AddUser(userID); err != nil {
		return nil, err
	}
	userPrefs := prefs.New()
	if s.prefs != nil {
		loaded, _, err := s.prefs.Load(userID)
		if err != nil {
			pslog.Ctx(ctx).Warn("session prefs load failed", "user", userID, "err", err)
		}
		userPrefs = loaded
	}
	if userPrefs.Theme == "" {
		userPrefs.Theme = s.cfg.Theme
	}
	var sessionPlugins []plugins.Plugin
	if s.cfg.Plugins != nil {
		sessionPlugins = s.cfg.Plugins()
	}
	return client.New(ctx, client.Config{
		UserID:              userID,
		Hub:                 s.hub,
		Screen:              screen,
		Prefs:               userPrefs,
		PrefsStore:          s.prefs,
		Notifier:            s.cfg.Notifier,
		Plugins:             sessionPlugins,
		MaxLines:            s.cfg.MaxLines,
		SplitKinds:          s.cfg.SplitKinds,
		RosterPercent:       s.cfg.RosterPercent,
		OccupantsPercent:    s.cfg.OccupantsPercent,
		TimeFormat:          s.cfg.TimeFormat,
		HistoryLines:        s.cfg.ChatHistoryLines,
		DisableAuditLogging: s.cfg.DisableAuditLogging,
	})
}

// New constructs a composable prattle server.
func New(cfg ServerConfig, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	logger := options.logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	h, err := NewHub(cfg.Hub, logger)
	if err != nil {
		return nil, err
	}
	store, err := auth.NewStore(cfg.Auth.UserFile, cfg.Auth.SeedUsers, logger)
	if err != nil {
		return nil, err
	}
	names, err := store.List()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := h.AddUser(schema.UserID(name)); err != nil {
			return nil, err
		}
	}
	if cfg.Session.Notifier == nil {
		cfg.Session.Notifier = notifier.Nop{}
	}
	sessions, err := NewSessions(h, cfg.Session, logger)
	if err != nil {
		return nil, err
	}
	sshSrv := &sshserver.Server{
		Addr:        cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKeyPath,
		AuthStore:   store,
		Sessions:    sessions,
	}
	return &compositeServer{cfg: cfg, options: options, hub: h, sshSrv: sshSrv}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	hub     *hub.Hub
	sshSrv  *sshserver.Server
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info("server start", "version", version.Read().Version, "ssh_addr", s.cfg.SSH.Addr, "domain", s.hub.Domain(), "users", len(s.hub.Users()))
	go func() {
		if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
			log.Error("ssh server failed", "err", err)
			s.errCh <- err
		}
	}()
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
