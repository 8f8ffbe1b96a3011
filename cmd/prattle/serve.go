package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/prattle"
	"pkt.systems/prattle/internal/appconfig"
	"pkt.systems/prattle/internal/notifier"
	"pkt.systems/prattle/sshserver"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	var disableAuditTrails bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve prattle sessions over SSH",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if disableAuditTrails {
				cfg.Logging.DisableAuditTrails = true
			}
			if addr != "" {
				cfg.SSH.Addr = addr
			}
			serverCfg, err := toServerConfig(cfg)
			if err != nil {
				return err
			}
			server, err := prattle.New(serverCfg, prattle.WithSSH(), prattle.WithLogger(logger))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("ssh server listening", "addr", serverCfg.SSH.Addr, "domain", serverCfg.Hub.Domain)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override ssh.addr")
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	return cmd
}

func toServerConfig(cfg appconfig.Config) (prattle.ServerConfig, error) {
	// Remote sessions have no desktop to notify.
	sessionCfg, err := toSessionConfig(cfg, notifier.Nop{})
	if err != nil {
		return prattle.ServerConfig{}, err
	}
	return prattle.ServerConfig{
		SSH: sshserver.Config{
			Addr:        cfg.SSH.Addr,
			HostKeyPath: cfg.SSH.HostKeyPath,
		},
		Auth: prattle.AuthConfig{
			UserFile:  cfg.Auth.UserFile,
			SeedUsers: cfg.Auth.SeedUsers,
		},
		Hub:     toHubConfig(cfg),
		Session: sessionCfg,
	}, nil
}
