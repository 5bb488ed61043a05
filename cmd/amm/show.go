package main

import (
	"github.com/spf13/cobra"

	"cpamm/internal/identity"
	"cpamm/internal/model"
)

type poolView struct {
	ID        string     `json:"id"`
	Phase     string     `json:"phase"`
	Authority string     `json:"authority"`
	Pool      model.Pool `json:"pool"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show ledger records",
	}

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Show a pool record",
		RunE:  runShowPool,
	}
	addPoolFlags(poolCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Show an owner's position in a pool",
		RunE:  runShowPosition,
	}
	addPoolFlags(positionCmd)
	positionCmd.Flags().String("owner", "", "position owner id or label")

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Show custody accounts",
		RunE:  runShowAccount,
	}
	accountCmd.Flags().StringSlice("id", nil, "account ids or labels (comma-separated)")

	cmd.AddCommand(poolCmd, positionCmd, accountCmd)
	return cmd
}

func runShowPool(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	record, err := rt.processor.Pool(ctx, id)
	if err != nil {
		return describe(err)
	}
	return printJSON(cmd, poolView{
		ID:        id.Hex(),
		Phase:     record.Phase().String(),
		Authority: identity.PoolAuthority(id).Hex(),
		Pool:      record,
	})
}

func runShowPosition(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	owner, err := idFlag(cmd, "owner")
	if err != nil {
		return err
	}
	position, err := rt.processor.Position(ctx, id, owner)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]interface{}{
		"pool":     id.Hex(),
		"owner":    owner.Hex(),
		"position": position,
	})
}

func runShowAccount(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	raw, _ := cmd.Flags().GetStringSlice("id")
	ids, err := identity.ParseIDs(raw)
	if err != nil {
		return err
	}

	out := make(map[string]model.Account, len(ids))
	for _, id := range ids {
		account, err := rt.processor.Account(ctx, id)
		if err != nil {
			return err
		}
		out[id.Hex()] = account
	}
	return printJSON(cmd, out)
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a swap without executing it",
		RunE:  runQuote,
	}
	addPoolFlags(cmd)
	cmd.Flags().Bool("input-a", true, "sell asset A (false sells asset B)")
	cmd.Flags().Uint64("amount-in", 0, "amount of the input asset")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := poolFlag(cmd)
	if err != nil {
		return err
	}
	inputIsA, _ := cmd.Flags().GetBool("input-a")
	amountIn, _ := cmd.Flags().GetUint64("amount-in")

	amountOut, err := rt.processor.Quote(ctx, id, inputIsA, amountIn)
	if err != nil {
		return describe(err)
	}
	return printJSON(cmd, map[string]interface{}{
		"pool":       id.Hex(),
		"input_is_a": inputIsA,
		"amount_in":  amountIn,
		"amount_out": amountOut,
	})
}
