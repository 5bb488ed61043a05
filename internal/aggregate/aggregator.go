// Package aggregate folds the receipt journal into per-pool activity stats.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"cpamm/internal/model"
	"cpamm/internal/storage"
)

// Sink persists computed stats.
type Sink interface {
	UpsertPoolStats(ctx context.Context, stats []model.PoolStats) error
}

// Config controls aggregation behavior.
type Config struct {
	// Since skips receipts committed before it. Zero keeps everything.
	Since time.Time
	// Pool restricts the report to one pool id when set.
	Pool string
}

// Aggregator computes pool stats from a receipt source.
type Aggregator struct {
	cfg    Config
	sink   Sink
	logger *zap.Logger
}

// NewAggregator builds an Aggregator. sink may be nil.
func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, sink: sink, logger: logger}
}

// Run replays source and returns stats sorted by pool id.
func (a *Aggregator) Run(ctx context.Context, source storage.Source) ([]model.PoolStats, error) {
	if source == nil {
		return nil, fmt.Errorf("receipt source is nil")
	}

	accumulators := make(map[string]*Accumulator)
	var total, skipped, failed int

	err := source.ReadReceipts(ctx, func(receipt model.Receipt) error {
		total++
		if a.cfg.Pool != "" && poolKey(receipt.Pool) != poolKey(a.cfg.Pool) {
			skipped++
			return nil
		}
		if !a.cfg.Since.IsZero() {
			if ts, ok := committedAt(receipt.CommittedAt); ok && ts.Before(a.cfg.Since) {
				skipped++
				return nil
			}
		}

		key := poolKey(receipt.Pool)
		acc := accumulators[key]
		if acc == nil {
			acc = NewAccumulator(receipt.Pool)
			accumulators[key] = acc
		}
		if err := acc.Add(receipt); err != nil {
			failed++
			a.logger.Warn("aggregate receipt", zap.Error(err), zap.String("id", receipt.ID), zap.String("pool", receipt.Pool))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read receipts: %w", err)
	}

	stats := make([]model.PoolStats, 0, len(accumulators))
	for _, acc := range accumulators {
		stats = append(stats, acc.Stats())
	}
	sort.Slice(stats, func(i, j int) bool {
		return poolKey(stats[i].Pool) < poolKey(stats[j].Pool)
	})

	if a.sink != nil && len(stats) > 0 {
		if err := a.sink.UpsertPoolStats(ctx, stats); err != nil {
			return nil, fmt.Errorf("store pool stats: %w", err)
		}
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("pools", len(stats)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return stats, nil
}
