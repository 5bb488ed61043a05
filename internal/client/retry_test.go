package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cpamm/internal/amm"
	"cpamm/internal/ledger"
)

func TestSubmitRetriesConflicts(t *testing.T) {
	calls := 0
	out, err := Submit(context.Background(), RetryConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil,
		func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, fmt.Errorf("commit: %w", ledger.ErrConflict)
			}
			return 42, nil
		})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out != 42 || calls != 3 {
		t.Fatalf("expected 42 after 3 calls, got %d after %d", out, calls)
	}
}

func TestSubmitGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := Submit(context.Background(), RetryConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}, nil,
		func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, ledger.ErrConflict
		})
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestSubmitDoesNotRetryDomainErrors(t *testing.T) {
	calls := 0
	_, err := Submit(context.Background(), RetryConfig{MaxRetries: 5, RetryBackoff: time.Millisecond}, nil,
		func(context.Context) (int, error) {
			calls++
			return 0, amm.ErrSlippageExceeded
		})
	if !errors.Is(err, amm.ErrSlippageExceeded) {
		t.Fatalf("expected slippage error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("domain errors must not be resubmitted, got %d calls", calls)
	}
}

func TestSubmitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Submit(ctx, RetryConfig{MaxRetries: 5, RetryBackoff: time.Hour}, nil,
		func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, ledger.ErrConflict
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
