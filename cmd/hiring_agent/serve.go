package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/db"
	"github.com/nerdintosubs/hiring-agent/internal/logger"
	"github.com/nerdintosubs/hiring-agent/internal/server"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	servePort            int
	serveMonitorInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the HTTP API and the webhook delivery monitor. State is restored from
persistence at startup and the process runs until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().DurationVar(&serveMonitorInterval, "monitor-interval", server.DefaultMonitorInterval,
		"How often webhook delivery state is sampled")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if cmd.Flags().Changed("port") {
		settings.Port = servePort
		if err := settings.Validate(); err != nil {
			return err
		}
	}

	log := logger.New(settings.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []store.Option{store.WithLogger(log)}
	if settings.PersistenceEnabled {
		persister, err := db.Open(ctx, settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open persistence: %w", err)
		}
		opts = append(opts, store.WithPersister(persister))
	}
	st := store.New(opts...)
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("failed to close persistence", "error", err)
		}
	}()

	if err := st.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore store: %w", err)
	}

	srv, err := server.New(server.Config{Settings: settings, Store: st, Logger: log})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	monitor := server.NewDeliveryMonitor(st, srv.Metrics(), log, serveMonitorInterval)

	log.Info("hiring agent starting",
		"env", settings.AppEnv,
		"port", settings.Port,
		"persistence", st.Persistent(),
		"auth_enabled", settings.AuthEnabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return monitor.Run(gctx) })
	return g.Wait()
}
