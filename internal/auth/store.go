// Package auth keeps the account file used to admit SSH sessions: bcrypt
// password hashes and optional TOTP secrets per user.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sys/unix"

	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// Account is one stored login.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	TOTPSecret   string    `json:"totp_secret,omitempty"`
	Created      time.Time `json:"created,omitzero"`
}

// Enrollment is returned when an account is created with a TOTP secret.
type Enrollment struct {
	Secret string
	// URL is the otpauth:// URI for authenticator apps.
	URL string
}

// Store is safe for concurrent use. Edits made by another process (for
// example `prattle users add` while the server runs) are picked up on the
// next call.
type Store struct {
	path     string
	cost     int
	mu       sync.RWMutex
	accounts map[string]Account
	identity fileIdentity
	log      pslog.Logger
}

// NewStore opens path, writing seeds to it first when it does not exist.
func NewStore(path string, seeds []appconfig.SeedUser, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("account file path is required")
	}
	if logger != nil {
		logger = logger.With("user_file", path)
	}
	s := &Store{path: path, cost: bcrypt.DefaultCost, accounts: make(map[string]Account), log: logger}
	if err := s.seed(seeds); err != nil {
		return nil, err
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Authenticate checks the password of username.
func (s *Store) Authenticate(username, password string) error {
	account, err := s.account(username)
	if err != nil {
		return schema.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return schema.ErrInvalidCredentials
	}
	return nil
}

// HasTOTP reports whether username must also answer a verification code.
func (s *Store) HasTOTP(username string) bool {
	account, err := s.account(username)
	return err == nil && account.TOTPSecret != ""
}

// ValidateTOTP checks a verification code. Accounts without a secret accept any code.
func (s *Store) ValidateTOTP(username, code string) error {
	account, err := s.account(username)
	if err != nil {
		return schema.ErrInvalidCredentials
	}
	if account.TOTPSecret == "" {
		return nil
	}
	if !totp.Validate(strings.TrimSpace(code), account.TOTPSecret) {
		return schema.ErrInvalidCredentials
	}
	return nil
}

// Add stores a new account. A non-empty issuer also generates a TOTP secret.
func (s *Store) Add(username, password, issuer string) (Enrollment, error) {
	if err := validateUsername(username); err != nil {
		return Enrollment{}, err
	}
	if password == "" {
		return Enrollment{}, errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Enrollment{}, err
	}
	account := Account{Username: username, PasswordHash: string(hash), Created: time.Now().UTC()}
	var enrollment Enrollment
	if issuer != "" {
		key, err := totp.Generate(totp.GenerateOpts{Issuer: issuer, AccountName: username})
		if err != nil {
			return Enrollment{}, fmt.Errorf("generate totp: %w", err)
		}
		account.TOTPSecret = key.Secret()
		enrollment = Enrollment{Secret: key.Secret(), URL: key.URL()}
	}
	err = s.update(func(accounts map[string]Account) error {
		if _, ok := accounts[username]; ok {
			return fmt.Errorf("%w: %s", schema.ErrAccountExists, username)
		}
		accounts[username] = account
		return nil
	})
	if err != nil {
		return Enrollment{}, err
	}
	s.info("auth account added", "user", username, "totp", issuer != "")
	return enrollment, nil
}

// SetPassword replaces the password of an existing account.
func (s *Store) SetPassword(username, password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	err = s.update(func(accounts map[string]Account) error {
		account, ok := accounts[username]
		if !ok {
			return fmt.Errorf("%w: %s", schema.ErrAccountNotFound, username)
		}
		account.PasswordHash = string(hash)
		accounts[username] = account
		return nil
	})
	if err != nil {
		return err
	}
	s.info("auth password updated", "user", username)
	return nil
}

// List returns the stored usernames in order.
func (s *Store) List() ([]string, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.accounts))
	for name := range s.accounts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func validateUsername(username string) error {
	if err := schema.ValidateUserID(schema.UserID(username)); err != nil {
		return fmt.Errorf("username %q: %w", username, err)
	}
	return nil
}

func (s *Store) account(username string) (Account, error) {
	if err := s.refresh(); err != nil {
		return Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", schema.ErrAccountNotFound, username)
	}
	return account, nil
}

func (s *Store) update(fn func(map[string]Account) error) error {
	if err := s.refresh(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]Account, len(s.accounts)+1)
	for name, account := range s.accounts {
		next[name] = account
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := writeAccounts(s.path, next); err != nil {
		s.warn("auth store save failed", err)
		return err
	}
	s.accounts = next
	s.identity, _ = identify(s.path)
	return nil
}

func (s *Store) seed(seeds []appconfig.SeedUser) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	accounts := make(map[string]Account, len(seeds))
	for _, seed := range seeds {
		if err := validateUsername(seed.Username); err != nil {
			return err
		}
		accounts[seed.Username] = Account{Username: seed.Username, PasswordHash: seed.PasswordHash, TOTPSecret: seed.TOTPSecret}
	}
	if err := writeAccounts(s.path, accounts); err != nil {
		s.warn("auth store init failed", err)
		return err
	}
	s.info("auth store initialized", "users", len(accounts))
	return nil
}

// refresh reloads the file when its identity changed since the last read.
func (s *Store) refresh() error {
	latest, err := identify(s.path)
	if err != nil {
		s.warn("auth store stat failed", err)
		return err
	}
	s.mu.RLock()
	same := latest == s.identity
	s.mu.RUnlock()
	if same {
		return nil
	}
	return s.reload()
}

func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.warn("auth store load failed", err)
		return err
	}
	var list []Account
	if err := json.Unmarshal(data, &list); err != nil {
		s.warn("auth store load failed", err)
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	accounts := make(map[string]Account, len(list))
	for _, account := range list {
		if err := validateUsername(account.Username); err != nil {
			return err
		}
		accounts[account.Username] = account
	}
	identity, err := identify(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts = accounts
	s.identity = identity
	s.mu.Unlock()
	if s.log != nil {
		s.log.Debug("auth store load ok", "users", len(accounts))
	}
	return nil
}

func writeAccounts(path string, accounts map[string]Account) error {
	list := make([]Account, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, account)
	}
	slices.SortFunc(list, func(a, b Account) int { return strings.Compare(a.Username, b.Username) })
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// fileIdentity changes whenever the file is replaced or rewritten.
type fileIdentity struct {
	dev   uint64
	ino   uint64
	size  int64
	mtime int64
}

func identify(path string) (fileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileIdentity{}, err
	}
	return fileIdentity{
		dev:   uint64(st.Dev),
		ino:   uint64(st.Ino),
		size:  st.Size,
		mtime: unix.TimespecToNsec(st.Mtim),
	}, nil
}

func (s *Store) info(msg string, kv ...any) {
	if s.log != nil {
		s.log.Info(msg, kv...)
	}
}

func (s *Store) warn(msg string, err error) {
	if s.log != nil {
		s.log.Warn(msg, "err", err)
	}
}
