package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pkt.systems/prattle/schema"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PRATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.buffer_max_lines", cfg.UI.BufferMaxLines)
	v.SetDefault("ui.split_windows", cfg.UI.SplitWindows)
	v.SetDefault("ui.roster_percent", cfg.UI.RosterPercent)
	v.SetDefault("ui.occupants_percent", cfg.UI.OccupantsPercent)
	v.SetDefault("ui.time_format", cfg.UI.TimeFormat)
	v.SetDefault("ui.chat_history_lines", cfg.UI.ChatHistoryLines)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("auth.user_file", cfg.Auth.UserFile)
	v.SetDefault("auth.seed_users", cfg.Auth.SeedUsers)
	v.SetDefault("hub.domain", cfg.Hub.Domain)
	v.SetDefault("hub.history_lines", cfg.Hub.HistoryLines)
	v.SetDefault("logging.disable_audit_trails", cfg.Logging.DisableAuditTrails)
	v.SetDefault("logging.local_file", cfg.Logging.LocalFile)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func Validate(cfg Config) error {
	if _, ok := schema.NormalizeThemeName(cfg.UI.Theme); !ok {
		return fmt.Errorf("ui.theme %q is not available", cfg.UI.Theme)
	}
	if cfg.UI.BufferMaxLines <= 0 {
		return fmt.Errorf("ui.buffer_max_lines must be positive")
	}
	if _, err := cfg.UI.SplitKinds(); err != nil {
		return err
	}
	if err := validatePercent("ui.roster_percent", cfg.UI.RosterPercent); err != nil {
		return err
	}
	if err := validatePercent("ui.occupants_percent", cfg.UI.OccupantsPercent); err != nil {
		return err
	}
	domain := strings.TrimSpace(cfg.Hub.Domain)
	if domain == "" || strings.ContainsAny(domain, "@/ ") {
		return fmt.Errorf("hub.domain %q is not a valid domain", cfg.Hub.Domain)
	}
	if strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required")
	}
	return nil
}

func validatePercent(name string, value int) error {
	if value < 1 || value > 90 {
		return fmt.Errorf("%s must be between 1 and 90, got %d", name, value)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
	cfg.Auth.UserFile = expandEnv(cfg.Auth.UserFile)
	cfg.Logging.LocalFile = expandEnv(cfg.Logging.LocalFile)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
