package main

import (
	"context"

	"github.com/spf13/cobra"

	"cpamm/internal/client"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage custody accounts",
	}

	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a custody account with an initial balance",
		RunE:  runAccountOpen,
	}
	openCmd.Flags().String("id", "", "account id or label")
	openCmd.Flags().String("owner", "", "owner id or label")
	openCmd.Flags().String("asset", "", "asset id or label")
	openCmd.Flags().Uint64("balance", 0, "initial balance")

	cmd.AddCommand(openCmd)
	return cmd
}

func runAccountOpen(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := idFlag(cmd, "id")
	if err != nil {
		return err
	}
	owner, err := idFlag(cmd, "owner")
	if err != nil {
		return err
	}
	asset, err := idFlag(cmd, "asset")
	if err != nil {
		return err
	}
	balance, _ := cmd.Flags().GetUint64("balance")

	_, err = client.Submit(ctx, rt.retry(), rt.logger, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, rt.processor.OpenAccount(ctx, id, owner, asset, balance)
	})
	if err != nil {
		return describe(err)
	}

	account, err := rt.processor.Account(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]interface{}{
		"id":      id.Hex(),
		"account": account,
	})
}
