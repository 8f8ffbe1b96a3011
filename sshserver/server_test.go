package sshserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/prattle/schema"
)

type fakeAuthContext struct {
	context.Context
	sync.Mutex
	user   string
	values map[any]any
}

func newFakeAuthContext(user string) *fakeAuthContext {
	return &fakeAuthContext{Context: context.Background(), user: user, values: make(map[any]any)}
}

func (c *fakeAuthContext) User() string          { return c.user }
func (c *fakeAuthContext) SessionID() string     { return "test-session" }
func (c *fakeAuthContext) ClientVersion() string { return "SSH-2.0-test" }
func (c *fakeAuthContext) ServerVersion() string { return "SSH-2.0-prattle" }
func (c *fakeAuthContext) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}
func (c *fakeAuthContext) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 27522}
}
func (c *fakeAuthContext) Permissions() *gliderssh.Permissions {
	return &gliderssh.Permissions{Permissions: &ssh.Permissions{}}
}
func (c *fakeAuthContext) SetValue(key, value any) { c.values[key] = value }
func (c *fakeAuthContext) Value(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.Context.Value(key)
}

type fakeAuthStore struct {
	passwords map[string]string
	totp      map[string]string
}

func (f fakeAuthStore) Authenticate(username, password string) error {
	if want, ok := f.passwords[username]; ok && want == password {
		return nil
	}
	return schema.ErrInvalidCredentials
}

func (f fakeAuthStore) HasTOTP(username string) bool {
	_, ok := f.totp[username]
	return ok
}

func (f fakeAuthStore) ValidateTOTP(username, code string) error {
	if want, ok := f.totp[username]; !ok || want == code {
		return nil
	}
	return schema.ErrInvalidCredentials
}

func answer(code string) ssh.KeyboardInteractiveChallenge {
	return func(name, instruction string, questions []string, echos []bool) ([]string, error) {
		if len(questions) != 1 {
			return nil, errors.New("unexpected questions")
		}
		return []string{code}, nil
	}
}

func newAuthServer() *Server {
	return &Server{AuthStore: fakeAuthStore{
		passwords: map[string]string{"alice": "pw", "bob": "pw"},
		totp:      map[string]string{"bob": "123456"},
	}}
}

func TestPasswordOnlyAccount(t *testing.T) {
	s := newAuthServer()
	if !s.handlePassword(newFakeAuthContext("alice"), "pw") {
		t.Fatalf("expected alice to be admitted by password")
	}
	if s.handlePassword(newFakeAuthContext("alice"), "nope") {
		t.Fatalf("expected wrong password to be rejected")
	}
	if s.handlePassword(newFakeAuthContext(""), "pw") {
		t.Fatalf("expected missing user to be rejected")
	}
}

func TestTOTPAccountNeedsBothSteps(t *testing.T) {
	s := newAuthServer()

	ctx := newFakeAuthContext("bob")
	if s.handleKeyboardInteractive(ctx, answer("123456")) {
		t.Fatalf("expected the code alone to be rejected")
	}
	if s.handlePassword(ctx, "pw") {
		t.Fatalf("expected the password alone to be insufficient")
	}
	if s.handleKeyboardInteractive(ctx, answer("000000")) {
		t.Fatalf("expected a wrong code to be rejected")
	}
	if !s.handleKeyboardInteractive(ctx, answer("123456")) {
		t.Fatalf("expected password plus code to be admitted")
	}
}

func TestListenRequiresCollaborators(t *testing.T) {
	s := &Server{}
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatalf("expected error without auth store")
	}
	s.AuthStore = fakeAuthStore{}
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatalf("expected error without session starter")
	}
}
