package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"pkt.systems/prattle"
	"pkt.systems/prattle/client"
	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/internal/auth"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/schema"
	"pkt.systems/pslog"
)

func newLocalCmd() *cobra.Command {
	var cfgPath string
	var user string
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run a session in this terminal against an in-process hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			userID, err := localUserID(user)
			if err != nil {
				return err
			}

			// The screen owns the terminal, so logs go to a file.
			logFile, err := openLocalLog(cfg.Logging.LocalFile)
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()
			logger := pslog.NewWithOptions(logFile, pslog.Options{
				Mode:     pslog.ModeStructured,
				NoColor:  true,
				MinLevel: pslog.InfoLevel,
			})
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)

			h, err := prattle.NewHub(toHubConfig(cfg), logger)
			if err != nil {
				return err
			}
			if err := addKnownAccounts(cfg.Auth.UserFile, h.AddUser, logger); err != nil {
				return err
			}
			sessionCfg, err := toSessionConfig(cfg, notifier.NewDesktop(logger))
			if err != nil {
				return err
			}
			sessions, err := prattle.NewSessions(h, sessionCfg, logger)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("terminal: %w", err)
			}
			defer screen.Fini()

			c, err := sessions.StartSession(ctx, userID, screen)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
			defer stop()
			logger.Info("local session start", "user", userID, "log_file", cfg.Logging.LocalFile)
			return c.Run(ctx, client.PollTcell(screen))
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user name (defaults to $USER)")
	return cmd
}

func localUserID(flag string) (schema.UserID, error) {
	name := strings.TrimSpace(flag)
	if name == "" {
		name = strings.ToLower(os.Getenv("USER"))
	}
	if name == "" {
		return "", errors.New("user is required: pass --user or set USER")
	}
	userID := schema.UserID(name)
	if err := schema.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("invalid user %q: must match [a-z0-9._-]", name)
	}
	return userID, nil
}

func openLocalLog(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("logging.local_file is required for local mode")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}

// addKnownAccounts puts server accounts on the local roster when an account
// file exists; local mode never creates one.
func addKnownAccounts(userFile string, add func(schema.UserID) error, logger pslog.Logger) error {
	if _, err := os.Stat(userFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	store, err := auth.NewStore(userFile, nil, logger)
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := add(schema.UserID(name)); err != nil {
			return err
		}
	}
	return nil
}
