package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/instruction"
	"cpamm/internal/model"
)

// Account slots expected by Execute for each instruction:
//
//	Initialize: assetA, assetB, vaultA, vaultB
//	Deposit:    pool, sourceA, sourceB, vaultA, vaultB
//	Redeem:     pool, vaultA, vaultB, destA, destB
//	Swap:       pool, source, dest, vaultA, vaultB
var accountSlots = map[instruction.Tag]int{
	instruction.TagInitialize: 4,
	instruction.TagDeposit:    5,
	instruction.TagRedeem:     5,
	instruction.TagSwap:       5,
}

// Execute decodes a raw instruction and dispatches it to the typed handler.
func (p *Processor) Execute(ctx context.Context, signer common.Hash, accounts []common.Hash, data []byte) (model.Receipt, error) {
	ix, err := instruction.Decode(data)
	if err != nil {
		return model.Receipt{}, err
	}
	if want := accountSlots[ix.Tag()]; len(accounts) != want {
		return model.Receipt{}, fmt.Errorf("%w: %s takes %d accounts, got %d", amm.ErrValidation, ix.Tag(), want, len(accounts))
	}

	switch ix := ix.(type) {
	case instruction.Initialize:
		return p.Initialize(ctx, InitializeRequest{
			Signer: signer,
			AssetA: accounts[0],
			AssetB: accounts[1],
			VaultA: accounts[2],
			VaultB: accounts[3],
		})
	case instruction.Deposit:
		return p.Deposit(ctx, DepositRequest{
			Signer:  signer,
			Pool:    accounts[0],
			SourceA: accounts[1],
			SourceB: accounts[2],
			VaultA:  accounts[3],
			VaultB:  accounts[4],
			AmountA: ix.AmountA,
			AmountB: ix.AmountB,
		})
	case instruction.Redeem:
		return p.Redeem(ctx, RedeemRequest{
			Signer: signer,
			Pool:   accounts[0],
			VaultA: accounts[1],
			VaultB: accounts[2],
			DestA:  accounts[3],
			DestB:  accounts[4],
			Shares: ix.Shares,
		})
	case instruction.Swap:
		return p.Swap(ctx, SwapRequest{
			Signer:       signer,
			Pool:         accounts[0],
			Source:       accounts[1],
			Dest:         accounts[2],
			VaultA:       accounts[3],
			VaultB:       accounts[4],
			InputIsA:     ix.InputIsA,
			AmountIn:     ix.AmountIn,
			MinAmountOut: ix.MinAmountOut,
		})
	default:
		return model.Receipt{}, fmt.Errorf("%w: unhandled instruction %T", amm.ErrValidation, ix)
	}
}
