// Package postgres journals receipts and pool stats in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cpamm/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for receipts and stats.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the journal tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	return nil
}

// PutReceipts appends receipts. Replaying a receipt id is a no-op.
func (s *Store) PutReceipts(ctx context.Context, receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range receipts {
		batch.Queue(`
			INSERT INTO receipts (
				id, op, pool, signer, amount_a, amount_b, shares, input_is_a,
				amount_in, amount_out, reserve_a, reserve_b, total_shares, committed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (id) DO NOTHING
		`,
			r.ID,
			r.Op,
			r.Pool,
			r.Signer,
			numeric(r.AmountA),
			numeric(r.AmountB),
			numeric(r.Shares),
			r.InputIsA,
			numeric(r.AmountIn),
			numeric(r.AmountOut),
			numeric(r.ReserveA),
			numeric(r.ReserveB),
			numeric(r.TotalShares),
			r.CommittedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range receipts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ReadReceipts streams receipts in insertion order.
func (s *Store) ReadReceipts(ctx context.Context, fn func(model.Receipt) error) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, op, pool, signer,
			amount_a::text, amount_b::text, shares::text, input_is_a,
			amount_in::text, amount_out::text,
			reserve_a::text, reserve_b::text, total_shares::text, committed_at
		FROM receipts
		ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r model.Receipt
		var amountA, amountB, shares, amountIn, amountOut, reserveA, reserveB, totalShares string
		if err := rows.Scan(
			&r.ID, &r.Op, &r.Pool, &r.Signer,
			&amountA, &amountB, &shares, &r.InputIsA,
			&amountIn, &amountOut,
			&reserveA, &reserveB, &totalShares, &r.CommittedAt,
		); err != nil {
			return fmt.Errorf("scan receipt: %w", err)
		}
		for _, field := range []struct {
			text string
			dst  *uint64
		}{
			{amountA, &r.AmountA},
			{amountB, &r.AmountB},
			{shares, &r.Shares},
			{amountIn, &r.AmountIn},
			{amountOut, &r.AmountOut},
			{reserveA, &r.ReserveA},
			{reserveB, &r.ReserveB},
			{totalShares, &r.TotalShares},
		} {
			v, err := strconv.ParseUint(field.text, 10, 64)
			if err != nil {
				return fmt.Errorf("receipt %s amount %q: %w", r.ID, field.text, err)
			}
			*field.dst = v
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// UpsertPoolStats inserts or replaces pool stats.
func (s *Store) UpsertPoolStats(ctx context.Context, stats []model.PoolStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, st := range stats {
		var price *string
		if st.Price != "" {
			price = &st.Price
		}
		batch.Queue(`
			INSERT INTO pool_stats (
				pool, swap_count, deposit_count, redeem_count,
				volume_in_a, volume_in_b, volume_out_a, volume_out_b,
				deposited_a, deposited_b, redeemed_a, redeemed_b,
				reserve_a, reserve_b, total_shares, price,
				first_committed, last_committed, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now(),now())
			ON CONFLICT (pool)
			DO UPDATE SET
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				redeem_count = EXCLUDED.redeem_count,
				volume_in_a = EXCLUDED.volume_in_a,
				volume_in_b = EXCLUDED.volume_in_b,
				volume_out_a = EXCLUDED.volume_out_a,
				volume_out_b = EXCLUDED.volume_out_b,
				deposited_a = EXCLUDED.deposited_a,
				deposited_b = EXCLUDED.deposited_b,
				redeemed_a = EXCLUDED.redeemed_a,
				redeemed_b = EXCLUDED.redeemed_b,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				total_shares = EXCLUDED.total_shares,
				price = EXCLUDED.price,
				first_committed = EXCLUDED.first_committed,
				last_committed = EXCLUDED.last_committed,
				updated_at = now()
		`,
			st.Pool,
			int64(st.SwapCount),
			int64(st.DepositCount),
			int64(st.RedeemCount),
			st.VolumeInA,
			st.VolumeInB,
			st.VolumeOutA,
			st.VolumeOutB,
			st.DepositedA,
			st.DepositedB,
			st.RedeemedA,
			st.RedeemedB,
			numeric(st.ReserveA),
			numeric(st.ReserveB),
			numeric(st.TotalShares),
			price,
			st.FirstCommitted,
			st.LastCommitted,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numeric passes a u64 as text so values above MaxInt64 survive.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}
