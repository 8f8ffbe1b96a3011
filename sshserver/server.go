// Package sshserver serves prattle sessions to SSH terminals.
package sshserver

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/gdamore/tcell/v2"
	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/prattle/client"
	"pkt.systems/prattle/internal/logx"
	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

// SessionStarter builds the client that runs inside one SSH session.
type SessionStarter interface {
	StartSession(ctx context.Context, userID schema.UserID, screen tcell.Screen) (*client.Client, error)
}

// LoginAuthStore validates SSH login credentials.
type LoginAuthStore interface {
	Authenticate(username, password string) error
	HasTOTP(username string) bool
	ValidateTOTP(username, code string) error
}

// Server exposes prattle over SSH.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	AuthStore   LoginAuthStore
	Sessions    SessionStarter
	logger      pslog.Logger
}

type authContextKey string

const loginPasswordOK authContextKey = "login-password-ok"

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.AuthStore == nil {
		return errors.New("auth store is required for SSH")
	}
	if s.Sessions == nil {
		return errors.New("session starter is required for SSH")
	}

	signer, created, err := LoadOrCreateHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}
	s.logger.Info("ssh host key ready", "path", s.HostKeyPath, "created", created, "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()))

	server := &gliderssh.Server{
		Addr:                       s.Addr,
		Handler:                    s.handleSession,
		PasswordHandler:            s.handlePassword,
		KeyboardInteractiveHandler: s.handleKeyboardInteractive,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) authLogger(ctx gliderssh.Context) pslog.Logger {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log = log.With("user", ctx.User(), "remote", remoteAddr(ctx))
	if sshSession := ctx.SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	return log
}

// handlePassword accepts the login outright unless the account also has a
// TOTP secret, in which case the keyboard-interactive step completes it.
func (s *Server) handlePassword(ctx gliderssh.Context, password string) bool {
	log := s.authLogger(ctx)
	if ctx.User() == "" {
		log.Warn("ssh password rejected", "reason", "missing user")
		return false
	}
	if err := s.AuthStore.Authenticate(ctx.User(), password); err != nil {
		log.Warn("ssh password rejected", "err", err)
		return false
	}
	if s.AuthStore.HasTOTP(ctx.User()) {
		ctx.SetValue(loginPasswordOK, true)
		log.Info("ssh password accepted", "totp", true)
		return false
	}
	log.Info("ssh password accepted")
	return true
}

func (s *Server) handleKeyboardInteractive(ctx gliderssh.Context, challenger ssh.KeyboardInteractiveChallenge) bool {
	if ctx.Value(loginPasswordOK) != true {
		return false
	}
	log := s.authLogger(ctx)
	answers, err := challenger(ctx.User(), "", []string{"Verification code: "}, []bool{false})
	if err != nil {
		log.Warn("ssh totp rejected", "reason", "challenge failed", "err", err)
		return false
	}
	if len(answers) != 1 {
		log.Warn("ssh totp rejected", "reason", "invalid answer count", "count", len(answers))
		return false
	}
	if err := s.AuthStore.ValidateTOTP(ctx.User(), answers[0]); err != nil {
		log.Warn("ssh totp rejected", "reason", "invalid code", "err", err)
		return false
	}
	log.Info("ssh totp accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	remote := sess.RemoteAddr().String()
	userID := schema.UserID(sess.User())
	if userID == "" {
		log.Info("ssh session rejected", "reason", "missing user", "remote", remote)
		_, _ = io.WriteString(sess, "missing user\n")
		return
	}
	log = log.With("user", userID, "remote", remote)
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	ctx := logx.ContextWithUserLogger(sess.Context(), log, userID)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		return
	}

	tty := newSessionTty(sess, pty.Window.Width, pty.Window.Height)
	screen, err := newSessionScreen(tty, pty.Term)
	if err != nil {
		log.Warn("ssh session screen init failed", "term", pty.Term, "err", err)
		_, _ = io.WriteString(sess, "terminal not supported\n")
		return
	}
	if err := screen.Init(); err != nil {
		log.Warn("ssh session screen init failed", "err", err)
		return
	}
	defer screen.Fini()

	c, err := s.Sessions.StartSession(ctx, userID, screen)
	if err != nil {
		log.Warn("ssh session rejected", "reason", "start failed", "err", err)
		return
	}

	log.Info("ssh session opened", "term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)
	go forwardResize(ctx, winCh, tty)
	in := client.PollTcell(screen)
	if err := c.Run(ctx, in); err != nil {
		log.Warn("ssh session run failed", "err", err)
	}
	go func() {
		for range in.Keys {
		}
	}()
	log.Info("ssh session closed", "term", pty.Term)
}

// newSessionScreen builds a tcell screen over tty for the client's TERM,
// falling back to xterm-256color for terminals tcell does not know.
func newSessionScreen(tty tcell.Tty, term string) (tcell.Screen, error) {
	ti, err := tcell.LookupTerminfo(term)
	if err != nil {
		ti, err = tcell.LookupTerminfo(fallbackTerm)
		if err != nil {
			return nil, err
		}
	}
	return tcell.NewTerminfoScreenFromTtyTerminfo(tty, ti)
}

const fallbackTerm = "xterm-256color"

// forwardResize hands window changes to the tty, which tells the screen;
// the client then sees a resize event from the screen.
func forwardResize(ctx context.Context, winCh <-chan gliderssh.Window, tty *sessionTty) {
	for {
		select {
		case <-ctx.Done():
			return
		case win, ok := <-winCh:
			if !ok {
				return
			}
			tty.resize(win.Width, win.Height)
		}
	}
}
