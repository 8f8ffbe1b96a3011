package main

import (
	"fmt"

	"pkt.systems/prattle"
	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/internal/plugins"
	"pkt.systems/prattle/schema"
)

func toHubConfig(cfg appconfig.Config) prattle.HubConfig {
	return prattle.HubConfig{
		Domain:       cfg.Hub.Domain,
		HistoryLines: cfg.Hub.HistoryLines,
		HistoryDir:   cfg.HistoryDir(),
	}
}

func toSessionConfig(cfg appconfig.Config, n notifier.Notifier) (prattle.SessionConfig, error) {
	kinds, err := cfg.UI.SplitKinds()
	if err != nil {
		return prattle.SessionConfig{}, err
	}
	theme, ok := schema.NormalizeThemeName(cfg.UI.Theme)
	if !ok {
		return prattle.SessionConfig{}, fmt.Errorf("ui.theme %q is not available", cfg.UI.Theme)
	}
	timeFormat := cfg.UI.TimeFormat
	return prattle.SessionConfig{
		PrefsDir:            cfg.PrefsDir(),
		Theme:               theme,
		MaxLines:            cfg.UI.BufferMaxLines,
		SplitKinds:          kinds,
		RosterPercent:       cfg.UI.RosterPercent,
		OccupantsPercent:    cfg.UI.OccupantsPercent,
		TimeFormat:          timeFormat,
		ChatHistoryLines:    cfg.UI.ChatHistoryLines,
		DisableAuditLogging: cfg.Logging.DisableAuditTrails,
		Plugins: func() []plugins.Plugin {
			return []plugins.Plugin{&plugins.Clock{Format: timeFormat}}
		},
		Notifier: n,
	}, nil
}
