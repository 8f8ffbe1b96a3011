package chatlog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// UserLog captures one user's direct-message history keyed by peer bare JID.
type UserLog struct {
	Peers map[string][]schema.Message `json:"peers"`
}

// Store persists user logs to disk.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("chatlog directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("chatlog_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Load reads a user log from disk.
func (s *Store) Load(userID schema.UserID) (UserLog, bool, error) {
	data, err := os.ReadFile(s.pathForUser(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("chatlog load miss", "user", userID)
			}
			return UserLog{}, false, nil
		}
		s.warn("chatlog load failed", userID, err)
		return UserLog{}, false, err
	}
	var userLog UserLog
	if err := json.Unmarshal(data, &userLog); err != nil {
		s.warn("chatlog load failed", userID, err)
		return UserLog{}, false, err
	}
	if s.log != nil {
		s.log.Debug("chatlog load ok", "user", userID, "peers", len(userLog.Peers))
	}
	return userLog, true, nil
}

// Save writes a user log to disk.
func (s *Store) Save(userID schema.UserID, userLog UserLog) error {
	path := s.pathForUser(userID)
	data, err := json.MarshalIndent(userLog, "", "  ")
	if err != nil {
		s.warn("chatlog save failed", userID, err)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "chatlog-*.json")
	if err != nil {
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		s.warn("chatlog save failed", userID, err)
		return err
	}
	if s.log != nil {
		s.log.Trace("chatlog save ok", "user", userID, "peers", len(userLog.Peers))
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
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
