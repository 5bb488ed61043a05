package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cpamm/internal/aggregate"
	"cpamm/internal/config"
	"cpamm/internal/storage"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize journaled activity per pool",
		RunE:  runReport,
	}
	cmd.Flags().String("since", "", "skip receipts before this time (unix seconds or RFC3339)")
	cmd.Flags().String("pool", "", "only report this pool id")
	cmd.Flags().Bool("store-stats", false, "upsert the stats into Postgres")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	since, err := config.ParseTimestamp(cfg.Since)
	if err != nil {
		return fmt.Errorf("parse since: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	var source storage.Source
	var sink aggregate.Sink
	switch cfg.JournalBackend {
	case config.JournalJSONL:
		source = storage.NewJsonlJournal(cfg.Journal)
	case config.JournalPostgres:
		store, err := openStatsStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		source = store
	default:
		return fmt.Errorf("journal backend %q has no receipts to report", cfg.JournalBackend)
	}

	if cfg.StoreStats {
		store, err := openStatsStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = store
	}

	stats, err := aggregate.NewAggregator(aggregate.Config{
		Since: since,
		Pool:  cfg.Pool,
	}, sink, logger).Run(ctx, source)
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
