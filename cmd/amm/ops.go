package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"cpamm/internal/identity"
	"cpamm/internal/model"
	"cpamm/internal/pool"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool for an asset pair",
		RunE:  runInit,
	}
	cmd.Flags().String("signer", "", "initializer id; must own both vaults")
	cmd.Flags().String("asset-a", "", "asset A id or label")
	cmd.Flags().String("asset-b", "", "asset B id or label")
	cmd.Flags().String("vault-a", "", "empty vault account for asset A")
	cmd.Flags().String("vault-b", "", "empty vault account for asset B")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var req pool.InitializeRequest
	for _, f := range []struct {
		name string
		dst  *common.Hash
	}{
		{"signer", &req.Signer},
		{"asset-a", &req.AssetA},
		{"asset-b", &req.AssetB},
		{"vault-a", &req.VaultA},
		{"vault-b", &req.VaultB},
	} {
		id, err := idFlag(cmd, f.name)
		if err != nil {
			return err
		}
		*f.dst = id
	}

	return rt.submit(ctx, cmd, func(ctx context.Context) (model.Receipt, error) {
		return rt.processor.Initialize(ctx, req)
	})
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit both assets at the current pool ratio",
		RunE:  runDeposit,
	}
	addPoolFlags(cmd)
	addVaultFlags(cmd)
	cmd.Flags().String("signer", "", "depositor id")
	cmd.Flags().String("source-a", "", "depositor account holding asset A")
	cmd.Flags().String("source-b", "", "depositor account holding asset B")
	cmd.Flags().Uint64("amount-a", 0, "amount of asset A")
	cmd.Flags().Uint64("amount-b", 0, "amount of asset B")
	return cmd
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := pool.DepositRequest{}
	if req.Pool, err = poolFlag(cmd); err != nil {
		return err
	}
	if req.VaultA, req.VaultB, err = rt.vaultFlags(ctx, cmd, req.Pool); err != nil {
		return err
	}
	if req.Signer, err = idFlag(cmd, "signer"); err != nil {
		return err
	}
	if req.SourceA, err = idFlag(cmd, "source-a"); err != nil {
		return err
	}
	if req.SourceB, err = idFlag(cmd, "source-b"); err != nil {
		return err
	}
	req.AmountA, _ = cmd.Flags().GetUint64("amount-a")
	req.AmountB, _ = cmd.Flags().GetUint64("amount-b")

	return rt.submit(ctx, cmd, func(ctx context.Context) (model.Receipt, error) {
		return rt.processor.Deposit(ctx, req)
	})
}

func newRedeemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Burn shares for a proportional share of both reserves",
		RunE:  runRedeem,
	}
	addPoolFlags(cmd)
	addVaultFlags(cmd)
	cmd.Flags().String("signer", "", "position owner id")
	cmd.Flags().String("dest-a", "", "account receiving asset A")
	cmd.Flags().String("dest-b", "", "account receiving asset B")
	cmd.Flags().Uint64("shares", 0, "shares to burn")
	return cmd
}

func runRedeem(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := pool.RedeemRequest{}
	if req.Pool, err = poolFlag(cmd); err != nil {
		return err
	}
	if req.VaultA, req.VaultB, err = rt.vaultFlags(ctx, cmd, req.Pool); err != nil {
		return err
	}
	if req.Signer, err = idFlag(cmd, "signer"); err != nil {
		return err
	}
	if req.DestA, err = idFlag(cmd, "dest-a"); err != nil {
		return err
	}
	if req.DestB, err = idFlag(cmd, "dest-b"); err != nil {
		return err
	}
	req.Shares, _ = cmd.Flags().GetUint64("shares")

	return rt.submit(ctx, cmd, func(ctx context.Context) (model.Receipt, error) {
		return rt.processor.Redeem(ctx, req)
	})
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one pool asset for the other",
		RunE:  runSwap,
	}
	addPoolFlags(cmd)
	addVaultFlags(cmd)
	cmd.Flags().String("signer", "", "trader id")
	cmd.Flags().String("source", "", "trader account holding the input asset")
	cmd.Flags().String("dest", "", "trader account receiving the output asset")
	cmd.Flags().Bool("input-a", true, "sell asset A (false sells asset B)")
	cmd.Flags().Uint64("amount-in", 0, "amount of the input asset")
	cmd.Flags().Uint64("min-out", 0, "minimum acceptable output")
	return cmd
}

func runSwap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := pool.SwapRequest{}
	if req.Pool, err = poolFlag(cmd); err != nil {
		return err
	}
	if req.VaultA, req.VaultB, err = rt.vaultFlags(ctx, cmd, req.Pool); err != nil {
		return err
	}
	if req.Signer, err = idFlag(cmd, "signer"); err != nil {
		return err
	}
	if req.Source, err = idFlag(cmd, "source"); err != nil {
		return err
	}
	if req.Dest, err = idFlag(cmd, "dest"); err != nil {
		return err
	}
	req.InputIsA, _ = cmd.Flags().GetBool("input-a")
	req.AmountIn, _ = cmd.Flags().GetUint64("amount-in")
	req.MinAmountOut, _ = cmd.Flags().GetUint64("min-out")

	return rt.submit(ctx, cmd, func(ctx context.Context) (model.Receipt, error) {
		return rt.processor.Swap(ctx, req)
	})
}

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Execute a raw instruction",
		Long: `Execute a tag-prefixed instruction against an ordered account list.

Accounts per instruction:
  initialize: assetA, assetB, vaultA, vaultB
  deposit:    pool, sourceA, sourceB, vaultA, vaultB
  redeem:     pool, vaultA, vaultB, destA, destB
  swap:       pool, source, dest, vaultA, vaultB`,
		RunE: runExec,
	}
	cmd.Flags().String("signer", "", "signer id")
	cmd.Flags().StringSlice("accounts", nil, "ordered account ids (comma-separated)")
	cmd.Flags().String("data", "", "0x-prefixed instruction bytes")
	return cmd
}

func runExec(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	signer, err := idFlag(cmd, "signer")
	if err != nil {
		return err
	}
	rawAccounts, _ := cmd.Flags().GetStringSlice("accounts")
	accounts, err := identity.ParseIDs(rawAccounts)
	if err != nil {
		return fmt.Errorf("--accounts: %w", err)
	}
	rawData, _ := cmd.Flags().GetString("data")
	data, err := hexutil.Decode(rawData)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}

	return rt.submit(ctx, cmd, func(ctx context.Context) (model.Receipt, error) {
		return rt.processor.Execute(ctx, signer, accounts, data)
	})
}
