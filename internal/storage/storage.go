package storage

import (
	"context"

	"cpamm/internal/model"
)

// Journal records committed operations.
type Journal interface {
	PutReceipts(ctx context.Context, receipts []model.Receipt) error
}

// Source replays journaled receipts in commit order.
type Source interface {
	ReadReceipts(ctx context.Context, fn func(model.Receipt) error) error
}

// Discard drops every receipt.
type Discard struct{}

func (Discard) PutReceipts(context.Context, []model.Receipt) error { return nil }
