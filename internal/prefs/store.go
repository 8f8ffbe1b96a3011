package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// Store persists per-user preferences as YAML files.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a preferences store rooted at dir.
func NewStore(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("prefs directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("prefs_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads the user's preferences. A missing file yields defaults and false.
func (s *Store) Load(userID schema.UserID) (*Prefs, bool, error) {
	data, err := os.ReadFile(s.pathForUser(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), false, nil
		}
		s.warn("prefs load failed", userID, err)
		return New(), false, err
	}
	prefs := New()
	if err := yaml.Unmarshal(data, prefs); err != nil {
		s.warn("prefs load failed", userID, err)
		return New(), false, err
	}
	if s.log != nil {
		s.log.Debug("prefs load ok", "user", userID)
	}
	return prefs, true, nil
}

// Save writes the user's preferences atomically.
func (s *Store) Save(userID schema.UserID, prefs *Prefs) error {
	if prefs == nil {
		prefs = New()
	}
	path := s.pathForUser(userID)
	data, err := yaml.Marshal(prefs)
	if err != nil {
		s.warn("prefs save failed", userID, err)
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		s.warn("prefs save failed", userID, err)
		return err
	}
	if s.log != nil {
		s.log.Trace("prefs save ok", "user", userID)
	}
	return nil
}

func (s *Store) warn(msg string, userID schema.UserID, err error) {
	if s.log != nil {
		s.log.Warn(msg, "user", userID, "err", err)
	}
}

func (s *Store) pathForUser(userID schema.UserID) string {
	name := sanitize(string(userID))
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(s.dir, name+".yaml")
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "prefs-*.yaml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
