package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product liquidity pool engine",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", "file", "ledger backend (memory, file, postgres, redis)")
	flags.String("state-file", "./data/ledger.json", "ledger snapshot path for the file store")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("redis-addr", "", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("journal", "./data/receipts.jsonl", "receipt journal path")
	flags.String("journal-backend", "jsonl", "receipt journal backend (jsonl, postgres, none)")
	flags.Int("max-retries", 5, "resubmissions after a ledger conflict")
	flags.Duration("retry-backoff", 50*time.Millisecond, "initial resubmission backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newDepositCmd(),
		newRedeemCmd(),
		newSwapCmd(),
		newExecCmd(),
		newAccountCmd(),
		newShowCmd(),
		newQuoteCmd(),
		newReportCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
