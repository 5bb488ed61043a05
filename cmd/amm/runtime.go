package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cpamm/internal/amm"
	"cpamm/internal/client"
	"cpamm/internal/config"
	"cpamm/internal/identity"
	"cpamm/internal/ledger"
	ledgerpg "cpamm/internal/ledger/postgres"
	ledgerredis "cpamm/internal/ledger/redis"
	"cpamm/internal/model"
	"cpamm/internal/pool"
	"cpamm/internal/storage"
	storagepg "cpamm/internal/storage/postgres"
)

// runtime is the wiring shared by every command.
type runtime struct {
	cfg       config.Config
	logger    *zap.Logger
	processor *pool.Processor
	closers   []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.logger.Sync()
}

func (r *runtime) retry() client.RetryConfig {
	return client.RetryConfig{MaxRetries: r.cfg.MaxRetries, RetryBackoff: r.cfg.RetryBackoff}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setup(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger}
	store, err := openStore(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func() { _ = store.Close() })

	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeJournal)

	rt.processor = pool.NewProcessor(store, nil, journal, logger)
	logger.Debug("runtime ready",
		zap.String("store", cfg.Store),
		zap.String("journal_backend", cfg.JournalBackend),
	)
	return rt, nil
}

func openStore(ctx context.Context, cfg config.Config) (ledger.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return ledger.NewMemoryStore(), nil
	case config.StoreFile:
		return ledger.OpenFileStore(cfg.StateFile)
	case config.StorePostgres:
		store, err := ledgerpg.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.StoreRedis:
		return ledgerredis.NewStore(ctx, ledgerredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openJournal(ctx context.Context, cfg config.Config) (storage.Journal, func(), error) {
	switch cfg.JournalBackend {
	case config.JournalNone:
		return storage.Discard{}, func() {}, nil
	case config.JournalJSONL:
		return storage.NewJsonlJournal(cfg.Journal), func() {}, nil
	case config.JournalPostgres:
		store, err := openStatsStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal backend %q", cfg.JournalBackend)
	}
}

func openStatsStore(ctx context.Context, dsn string) (*storagepg.Store, error) {
	store, err := storagepg.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// submit resubmits op on ledger conflicts, prints the receipt and tags
// domain rejections with their stable code.
func (r *runtime) submit(ctx context.Context, cmd *cobra.Command, op func(context.Context) (model.Receipt, error)) error {
	receipt, err := client.Submit(ctx, r.retry(), r.logger, op)
	if err != nil {
		return describe(err)
	}
	return printJSON(cmd, receipt)
}

func describe(err error) error {
	if amm.IsDomain(err) {
		kind := amm.KindOf(err)
		return fmt.Errorf("rejected code=%d kind=%s: %w", uint32(kind), kind, err)
	}
	if errors.Is(err, ledger.ErrConflict) {
		return fmt.Errorf("ledger busy, resubmit later: %w", err)
	}
	return err
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func idFlag(cmd *cobra.Command, name string) (common.Hash, error) {
	value, _ := cmd.Flags().GetString(name)
	id, err := identity.ParseID(value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("--%s: %w", name, err)
	}
	return id, nil
}

// optionalID returns the zero id when the flag is unset.
func optionalID(cmd *cobra.Command, name string) (common.Hash, error) {
	if value, _ := cmd.Flags().GetString(name); value == "" {
		return common.Hash{}, nil
	}
	return idFlag(cmd, name)
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool id (or use --asset-a/--asset-b)")
	cmd.Flags().String("asset-a", "", "asset A id or label")
	cmd.Flags().String("asset-b", "", "asset B id or label")
}

// poolFlag resolves --pool, or derives the pool id from the asset pair.
func poolFlag(cmd *cobra.Command) (common.Hash, error) {
	if value, _ := cmd.Flags().GetString("pool"); value != "" {
		return idFlag(cmd, "pool")
	}
	assetA, err := idFlag(cmd, "asset-a")
	if err != nil {
		return common.Hash{}, fmt.Errorf("pool: %w", err)
	}
	assetB, err := idFlag(cmd, "asset-b")
	if err != nil {
		return common.Hash{}, fmt.Errorf("pool: %w", err)
	}
	return identity.PoolAddress(assetA, assetB), nil
}

func addVaultFlags(cmd *cobra.Command) {
	cmd.Flags().String("vault-a", "", "pool vault for asset A (default: the pool's recorded vault)")
	cmd.Flags().String("vault-b", "", "pool vault for asset B (default: the pool's recorded vault)")
}

// vaultFlags returns the supplied vaults, falling back to the pool record.
func (r *runtime) vaultFlags(ctx context.Context, cmd *cobra.Command, poolID common.Hash) (common.Hash, common.Hash, error) {
	vaultA, err := optionalID(cmd, "vault-a")
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}
	vaultB, err := optionalID(cmd, "vault-b")
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}
	if vaultA != (common.Hash{}) && vaultB != (common.Hash{}) {
		return vaultA, vaultB, nil
	}

	record, err := r.processor.Pool(ctx, poolID)
	if err != nil {
		return common.Hash{}, common.Hash{}, describe(err)
	}
	if vaultA == (common.Hash{}) {
		vaultA = record.VaultA
	}
	if vaultB == (common.Hash{}) {
		vaultB = record.VaultB
	}
	return vaultA, vaultB, nil
}
