package hub

import (
	"errors"
	"testing"
	"time"

	"github.com/containerd/errdefs"

	"pkt.systems/prattle/schema"
)

var fixed = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestHub(t *testing.T, users ...schema.UserID) *Hub {
	t.Helper()
	h := New(Options{Clock: func() time.Time { return fixed }})
	for _, u := range users {
		if err := h.AddUser(u); err != nil {
			t.Fatalf("AddUser(%s): %v", u, err)
		}
	}
	return h
}

// next returns the first event of type want, skipping others.
func next(t *testing.T, ch <-chan Event, want EventType) Event {
	t.Helper()
	timeout := time.After(500 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func drain(ch <-chan Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestDirectMessageDeliveryAndHistory(t *testing.T) {
	h := newTestHub(t, "alice", "bob")
	bobCh, cancel := h.Subscribe("bob")
	defer cancel()

	msg, err := h.SendMessage("alice", "bob", "hi bob")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.From != "alice@localhost" || msg.To != "bob@localhost" {
		t.Fatalf("unexpected addressing: %+v", msg)
	}
	got := next(t, bobCh, EventMessage)
	if got.Message.Body != "hi bob" {
		t.Fatalf("unexpected body %q", got.Message.Body)
	}
	stanza := next(t, bobCh, EventStanza)
	if stanza.Outgoing || stanza.Stanza != "<message from='alice@localhost' to='bob@localhost' type='chat'><body>hi bob</body></message>" {
		t.Fatalf("unexpected stanza %+v", stanza)
	}
	for _, view := range []struct {
		user schema.UserID
		peer string
	}{{"alice", "bob@localhost"}, {"bob", "alice@localhost"}} {
		history, err := h.History(view.user, view.peer, 0)
		if err != nil || len(history) != 1 {
			t.Fatalf("%s: expected one stored message, got %d (%v)", view.user, len(history), err)
		}
	}
}

func TestSendToUnknownUser(t *testing.T) {
	h := newTestHub(t, "alice")
	_, err := h.SendMessage("alice", "nobody@localhost", "hi")
	if !errors.Is(err, schema.ErrUnknownUser) || !errdefs.IsNotFound(err) {
		t.Fatalf("expected unknown user, got %v", err)
	}
	if _, err := h.SendMessage("alice", "bob@elsewhere", "hi"); !errors.Is(err, schema.ErrUnknownUser) {
		t.Fatalf("expected foreign domain to be unknown, got %v", err)
	}
	if _, err := h.SendMessage("alice", "bad jid", "hi"); !errors.Is(err, schema.ErrInvalidJID) {
		t.Fatalf("expected invalid jid, got %v", err)
	}
}

func TestEchoBotReplies(t *testing.T) {
	h := newTestHub(t, "alice")
	ch, cancel := h.Subscribe("alice")
	defer cancel()
	if _, err := h.SendMessage("alice", "echo", "ping"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	got := next(t, ch, EventMessage)
	if got.Message.From != "echo@localhost" || got.Message.Body != "ping" {
		t.Fatalf("unexpected echo: %+v", got.Message)
	}
}

func TestPresenceLifecycle(t *testing.T) {
	h := newTestHub(t, "alice", "bob")
	aliceCh, cancelAlice := h.Subscribe("alice")
	defer cancelAlice()
	drain(aliceCh)

	_, cancelBob := h.Subscribe("bob")
	came := next(t, aliceCh, EventPresence)
	if came.Presence.JID != "bob@localhost" || came.Presence.Show != schema.PresenceOnline || !came.Presence.Came {
		t.Fatalf("unexpected presence %+v", came.Presence)
	}
	if err := h.SetPresence("bob", "away", "lunch"); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	away := next(t, aliceCh, EventPresence)
	if away.Presence.Show != schema.PresenceAway || away.Presence.Status != "lunch" || !away.Presence.LastActivity.Equal(fixed) {
		t.Fatalf("unexpected presence %+v", away.Presence)
	}
	contact, err := h.Contact("bob")
	if err != nil || contact.Presence != schema.PresenceAway || len(contact.Resources) != 1 {
		t.Fatalf("unexpected contact %+v (%v)", contact, err)
	}
	cancelBob()
	cancelBob()
	gone := next(t, aliceCh, EventPresence)
	if gone.Presence.Show != schema.PresenceOffline || gone.Presence.Came {
		t.Fatalf("unexpected presence %+v", gone.Presence)
	}
	if err := h.SetPresence("alice", "sleepy", ""); !errors.Is(err, schema.ErrInvalidPresence) {
		t.Fatalf("expected invalid presence, got %v", err)
	}
}

func TestRosterExcludesSelf(t *testing.T) {
	h := newTestHub(t, "alice", "bob")
	roster := h.Roster("alice")
	if len(roster) != 2 || roster[0].JID != "bob@localhost" || roster[1].JID != "echo@localhost" {
		t.Fatalf("unexpected roster %+v", roster)
	}
	if roster[1].Name != "Echo" || roster[1].Presence != schema.PresenceOnline {
		t.Fatalf("unexpected echo contact %+v", roster[1])
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := newTestHub(t, "alice")
	ch, cancel := h.Subscribe("alice")
	cancel()
	for range ch {
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	h := newTestHub(t, "alice", "bob")
	h.depth = 1
	_, cancel := h.Subscribe("bob")
	defer cancel()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			_, _ = h.SendMessage("alice", "bob", "flood")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
