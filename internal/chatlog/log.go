package chatlog

import (
	"slices"
	"sync"

	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// Log keeps bounded per-peer message history for every user, loading each
// user's log lazily and writing it back after every append.
type Log struct {
	mu    sync.Mutex
	store *Store
	max   int
	users map[schema.UserID]UserLog
	log   pslog.Logger
}

// NewLog constructs a history log. A nil store keeps history in memory only.
func NewLog(store *Store, maxPerPeer int, logger pslog.Logger) *Log {
	if maxPerPeer <= 0 {
		maxPerPeer = schema.DefaultHistoryLines
	}
	return &Log{
		store: store,
		max:   maxPerPeer,
		users: make(map[schema.UserID]UserLog),
		log:   logger,
	}
}

// Append records msg in the conversation between userID and peer.
func (l *Log) Append(userID schema.UserID, peer string, msg schema.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	userLog, err := l.loadLocked(userID)
	if err != nil {
		return err
	}
	history := append(userLog.Peers[peer], msg)
	if len(history) > l.max {
		history = slices.Clone(history[len(history)-l.max:])
	}
	userLog.Peers[peer] = history
	if l.store == nil {
		return nil
	}
	return l.store.Save(userID, userLog)
}

// History returns up to n of the most recent messages with peer, oldest first.
// n <= 0 returns everything kept.
func (l *Log) History(userID schema.UserID, peer string, n int) ([]schema.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	userLog, err := l.loadLocked(userID)
	if err != nil {
		return nil, err
	}
	history := userLog.Peers[peer]
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return slices.Clone(history), nil
}

func (l *Log) loadLocked(userID schema.UserID) (UserLog, error) {
	if userLog, ok := l.users[userID]; ok {
		return userLog, nil
	}
	userLog := UserLog{}
	if l.store != nil {
		loaded, _, err := l.store.Load(userID)
		if err != nil {
			return UserLog{}, err
		}
		userLog = loaded
	}
	if userLog.Peers == nil {
		userLog.Peers = make(map[string][]schema.Message)
	}
	l.users[userID] = userLog
	if l.log != nil {
		l.log.Debug("chatlog user loaded", "user", userID, "peers", len(userLog.Peers))
	}
	return userLog, nil
}
