package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/prattle/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	UI            UIConfig      `mapstructure:"ui" yaml:"ui"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	Auth          AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Hub           HubConfig     `mapstructure:"hub" yaml:"hub"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// UIConfig controls windows and rendering.
type UIConfig struct {
	Theme            string   `mapstructure:"theme" yaml:"theme"`
	BufferMaxLines   int      `mapstructure:"buffer_max_lines" yaml:"buffer_max_lines"`
	SplitWindows     []string `mapstructure:"split_windows" yaml:"split_windows"`
	RosterPercent    int      `mapstructure:"roster_percent" yaml:"roster_percent"`
	OccupantsPercent int      `mapstructure:"occupants_percent" yaml:"occupants_percent"`
	TimeFormat       string   `mapstructure:"time_format" yaml:"time_format"`
	// ChatHistoryLines is how much stored history a new chat window shows.
	ChatHistoryLines int `mapstructure:"chat_history_lines" yaml:"chat_history_lines"`
}

// SplitKinds parses SplitWindows.
func (u UIConfig) SplitKinds() ([]schema.WindowKind, error) {
	kinds := make([]schema.WindowKind, 0, len(u.SplitWindows))
	for _, name := range u.SplitWindows {
		kind, err := schema.ParseWindowKind(name)
		if err != nil {
			return nil, fmt.Errorf("ui.split_windows: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// SSHConfig configures the SSH server.
type SSHConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath string `mapstructure:"host_key_path" yaml:"host_key_path"`
}

// AuthConfig configures the account file and its first-start seed.
type AuthConfig struct {
	UserFile  string     `mapstructure:"user_file" yaml:"user_file"`
	SeedUsers []SeedUser `mapstructure:"seed_users" yaml:"seed_users"`
}

// SeedUser is written to an account file that does not exist yet.
type SeedUser struct {
	Username     string `mapstructure:"username" yaml:"username"`
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash"`
	TOTPSecret   string `mapstructure:"totp_secret" yaml:"totp_secret"`
}

// HubConfig configures the in-process message hub.
type HubConfig struct {
	Domain       string `mapstructure:"domain" yaml:"domain"`
	HistoryLines int    `mapstructure:"history_lines" yaml:"history_lines"`
}

// LoggingConfig controls audit logging and the local-mode log file.
type LoggingConfig struct {
	DisableAuditTrails bool   `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
	LocalFile          string `mapstructure:"local_file" yaml:"local_file"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	root := filepath.Join(home, ".prattle")
	kinds := schema.DefaultSplitKinds()
	splits := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		splits = append(splits, kind.String())
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(root, "state"),
		UI: UIConfig{
			Theme:            string(schema.DefaultTheme),
			BufferMaxLines:   schema.DefaultBufferMaxLines,
			SplitWindows:     splits,
			RosterPercent:    schema.DefaultRosterPercent,
			OccupantsPercent: schema.DefaultOccupantsPercent,
			TimeFormat:       schema.DefaultTimeFormat,
			ChatHistoryLines: 20,
		},
		SSH: SSHConfig{
			Addr:        ":27522",
			HostKeyPath: filepath.Join(root, "ssh_host_key"),
		},
		Auth: AuthConfig{
			UserFile: filepath.Join(root, "users.json"),
		},
		Hub: HubConfig{
			Domain:       schema.DefaultDomain,
			HistoryLines: schema.DefaultHistoryLines,
		},
		Logging: LoggingConfig{
			LocalFile: filepath.Join(root, "state", "prattle.log"),
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".prattle", "config.yaml"), nil
}

// PrefsDir is where per-user preferences live.
func (c Config) PrefsDir() string { return filepath.Join(c.StateDir, "prefs") }

// HistoryDir is where per-user direct-message history lives.
func (c Config) HistoryDir() string { return filepath.Join(c.StateDir, "history") }
