package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/db"
	"github.com/nerdintosubs/hiring-agent/internal/observability"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect the persisted store snapshot",
	Long:  "Opens DATABASE_URL, loads and schema-validates the snapshot, and prints the record count per collection.",
	RunE:  runSnapshot,
}

var (
	snapshotDatabaseURL string
	snapshotVerbose     bool
)

func init() {
	snapshotCmd.Flags().StringVar(&snapshotDatabaseURL, "database-url", "", "Database to inspect (defaults to DATABASE_URL)")
	snapshotCmd.Flags().BoolVarP(&snapshotVerbose, "verbose", "v", false, "Print pipeline, webhook and campaign summaries")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	databaseURL := snapshotDatabaseURL
	if databaseURL == "" {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		databaseURL = settings.DatabaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	persister, err := db.Open(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() { _ = persister.Close() }()

	payload, found, err := persister.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	out := cmd.OutOrStdout()
	if !found {
		_, _ = fmt.Fprintln(out, "No snapshot stored")
		return nil
	}

	snap, err := store.DecodeSnapshot(payload)
	if err != nil {
		return err
	}

	counts := snap.Counts()
	if snapshotVerbose {
		printer := observability.NewPrinter(out)
		printer.PrintCollections(counts)
		printer.PrintPipeline(snap.Applications)
		printer.PrintDeliveries(snap.WebhookDeliveries)
		printer.PrintCampaigns(snap.Campaigns)
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintf(out, "Snapshot OK (%d bytes)\n", len(payload))
	for _, name := range names {
		_, _ = fmt.Fprintf(out, "  %-20s %d\n", name, counts[name])
	}
	return nil
}
