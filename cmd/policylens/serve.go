package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policylens/internal/adapters/driving/http"
	"github.com/custodia-labs/policylens/internal/config"
)

// providerPingTimeout bounds the startup reachability probe of analysis providers
const providerPingTimeout = 10 * time.Second

// serveCmd is the cobra command that starts the PolicyLens API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the policylens api server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve wires the application and serves HTTP until the context is cancelled
func serve(ctx context.Context) error {
	logger := slog.Default()

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, providerPingTimeout)
	for name, err := range a.registry.PingProviders(pingCtx) {
		logger.Warn("analysis provider unreachable at startup", "provider", name, "error", err)
	}
	cancel()

	server := http.NewServer(http.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      version,
		Environment:  cfg.Environment,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		BatchLimit:   cfg.Server.BatchLimit,
		CORSOrigins:  http.ParseOrigins(cfg.Server.CORSOrigins),
		Logger:       logger,
	}, http.Dependencies{
		PolicyService: a.policyService,
		AuthService:   a.authService,
		Runtime:       a.registry.Config(),
		Checks:        a.checks,
	})

	return server.Start(ctx, cfg.Server.ShutdownTimeout)
}
