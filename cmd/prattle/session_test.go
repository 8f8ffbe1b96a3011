package main

import (
	"testing"

	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/internal/plugins"
	"pkt.systems/prattle/schema"
)

func TestToSessionConfigMapsUI(t *testing.T) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.StateDir = t.TempDir()
	cfg.UI.Theme = "Tokyo_Midnight"
	cfg.UI.SplitWindows = []string{"muc"}
	cfg.UI.RosterPercent = 30
	cfg.Logging.DisableAuditTrails = true

	sessionCfg, err := toSessionConfig(cfg, notifier.Nop{})
	if err != nil {
		t.Fatalf("toSessionConfig: %v", err)
	}
	if sessionCfg.Theme != "tokyo-midnight" {
		t.Fatalf("expected normalized theme, got %q", sessionCfg.Theme)
	}
	if len(sessionCfg.SplitKinds) != 1 || sessionCfg.SplitKinds[0] != schema.WindowMuc {
		t.Fatalf("expected muc split only, got %v", sessionCfg.SplitKinds)
	}
	if sessionCfg.RosterPercent != 30 || !sessionCfg.DisableAuditLogging {
		t.Fatalf("unexpected session config %+v", sessionCfg)
	}
	if sessionCfg.PrefsDir != cfg.PrefsDir() {
		t.Fatalf("expected prefs dir %q, got %q", cfg.PrefsDir(), sessionCfg.PrefsDir)
	}
	first := sessionCfg.Plugins()
	second := sessionCfg.Plugins()
	if len(first) != 1 || first[0] == second[0] {
		t.Fatalf("expected a fresh clock per session")
	}
	if clock, ok := first[0].(*plugins.Clock); !ok || clock.Format != cfg.UI.TimeFormat {
		t.Fatalf("expected clock using the ui time format, got %#v", first[0])
	}
}

func TestToSessionConfigRejectsUnknownSplit(t *testing.T) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.UI.SplitWindows = []string{"bogus"}
	if _, err := toSessionConfig(cfg, notifier.Nop{}); err == nil {
		t.Fatalf("expected split kind error")
	}
}

func TestToServerConfig(t *testing.T) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.SSH.Addr = "127.0.0.1:2222"
	cfg.Hub.Domain = "chat.example"
	serverCfg, err := toServerConfig(cfg)
	if err != nil {
		t.Fatalf("toServerConfig: %v", err)
	}
	if serverCfg.SSH.Addr != "127.0.0.1:2222" || serverCfg.Hub.Domain != "chat.example" {
		t.Fatalf("unexpected server config %+v", serverCfg)
	}
	if serverCfg.Hub.HistoryDir != cfg.HistoryDir() {
		t.Fatalf("expected history dir %q, got %q", cfg.HistoryDir(), serverCfg.Hub.HistoryDir)
	}
	if _, ok := serverCfg.Session.Notifier.(notifier.Nop); !ok {
		t.Fatalf("expected ssh sessions to use the no-op notifier")
	}
}
