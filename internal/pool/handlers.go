package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"cpamm/internal/amm"
	"cpamm/internal/custody"
	"cpamm/internal/identity"
	"cpamm/internal/ledger"
	"cpamm/internal/model"
)

// Initialize creates the pool for an asset pair and hands both vaults to the
// pool authority. The pair is unordered, so (B, A) collides with (A, B).
func (p *Processor) Initialize(ctx context.Context, req InitializeRequest) (model.Receipt, error) {
	return p.commit(ctx, model.OpInitialize, req.Signer, func(tx *ledger.Tx, receipt *model.Receipt) error {
		if req.AssetA == req.AssetB {
			return fmt.Errorf("%w: pool assets must differ", amm.ErrValidation)
		}
		if req.VaultA == req.VaultB {
			return fmt.Errorf("%w: pool vaults must differ", amm.ErrValidation)
		}

		id := identity.PoolAddress(req.AssetA, req.AssetB)
		if _, ok, err := tx.Pool(ctx, id); err != nil {
			return fmt.Errorf("load pool: %w", err)
		} else if ok {
			return fmt.Errorf("%w: %s", amm.ErrAlreadyInitialized, id.Hex())
		}

		if err := checkVault(ctx, tx, req.VaultA, req.AssetA); err != nil {
			return err
		}
		if err := checkVault(ctx, tx, req.VaultB, req.AssetB); err != nil {
			return err
		}

		authority := identity.PoolAuthority(id)
		if err := p.custody.SetAuthority(ctx, tx, req.VaultA, req.Signer, authority); err != nil {
			return fmt.Errorf("bind vault a: %w", err)
		}
		if err := p.custody.SetAuthority(ctx, tx, req.VaultB, req.Signer, authority); err != nil {
			return fmt.Errorf("bind vault b: %w", err)
		}

		pool := model.NewPool(req.AssetA, req.AssetB, req.VaultA, req.VaultB)
		if err := tx.PutPool(ctx, id, pool); err != nil {
			return fmt.Errorf("persist pool: %w", err)
		}
		settle(receipt, id, pool)
		return nil
	})
}

// Deposit adds liquidity at the current ratio and credits the signer's
// position with the minted shares.
func (p *Processor) Deposit(ctx context.Context, req DepositRequest) (model.Receipt, error) {
	return p.commit(ctx, model.OpDeposit, req.Signer, func(tx *ledger.Tx, receipt *model.Receipt) error {
		pool, err := loadPool(ctx, tx, req.Pool, req.VaultA, req.VaultB)
		if err != nil {
			return err
		}
		position, _, err := tx.Position(ctx, req.Pool, req.Signer)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}

		res, err := amm.ApplyDeposit(pool, position, req.AmountA, req.AmountB)
		if err != nil {
			return err
		}

		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: req.SourceA, To: pool.VaultA, Amount: req.AmountA, Authority: req.Signer,
		}); err != nil {
			return fmt.Errorf("transfer a in: %w", err)
		}
		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: req.SourceB, To: pool.VaultB, Amount: req.AmountB, Authority: req.Signer,
		}); err != nil {
			return fmt.Errorf("transfer b in: %w", err)
		}

		if err := tx.PutPool(ctx, req.Pool, res.Pool); err != nil {
			return fmt.Errorf("persist pool: %w", err)
		}
		if err := tx.PutPosition(ctx, req.Pool, req.Signer, res.Position); err != nil {
			return fmt.Errorf("persist position: %w", err)
		}

		receipt.AmountA = req.AmountA
		receipt.AmountB = req.AmountB
		receipt.Shares = res.Minted
		settle(receipt, req.Pool, res.Pool)
		return nil
	})
}

// Redeem burns shares from the signer's position. The payout is signed by
// the pool authority, not the signer.
func (p *Processor) Redeem(ctx context.Context, req RedeemRequest) (model.Receipt, error) {
	return p.commit(ctx, model.OpRedeem, req.Signer, func(tx *ledger.Tx, receipt *model.Receipt) error {
		pool, err := loadPool(ctx, tx, req.Pool, req.VaultA, req.VaultB)
		if err != nil {
			return err
		}
		position, _, err := tx.Position(ctx, req.Pool, req.Signer)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}

		res, err := amm.ApplyRedeem(pool, position, req.Shares)
		if err != nil {
			return err
		}

		authority := identity.PoolAuthority(req.Pool)
		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: pool.VaultA, To: req.DestA, Amount: res.AmountA, Authority: authority,
		}); err != nil {
			return fmt.Errorf("transfer a out: %w", err)
		}
		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: pool.VaultB, To: req.DestB, Amount: res.AmountB, Authority: authority,
		}); err != nil {
			return fmt.Errorf("transfer b out: %w", err)
		}

		if err := tx.PutPool(ctx, req.Pool, res.Pool); err != nil {
			return fmt.Errorf("persist pool: %w", err)
		}
		if err := tx.PutPosition(ctx, req.Pool, req.Signer, res.Position); err != nil {
			return fmt.Errorf("persist position: %w", err)
		}

		receipt.AmountA = res.AmountA
		receipt.AmountB = res.AmountB
		receipt.Shares = req.Shares
		settle(receipt, req.Pool, res.Pool)
		return nil
	})
}

// Swap sells AmountIn of one asset for the other. The inbound leg is signed
// by the signer and the outbound leg by the pool authority.
func (p *Processor) Swap(ctx context.Context, req SwapRequest) (model.Receipt, error) {
	return p.commit(ctx, model.OpSwap, req.Signer, func(tx *ledger.Tx, receipt *model.Receipt) error {
		pool, err := loadPool(ctx, tx, req.Pool, req.VaultA, req.VaultB)
		if err != nil {
			return err
		}

		res, err := amm.ApplySwap(pool, req.InputIsA, req.AmountIn, req.MinAmountOut)
		if err != nil {
			return err
		}

		vaultIn, vaultOut := pool.VaultB, pool.VaultA
		if req.InputIsA {
			vaultIn, vaultOut = pool.VaultA, pool.VaultB
		}

		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: req.Source, To: vaultIn, Amount: req.AmountIn, Authority: req.Signer,
		}); err != nil {
			return fmt.Errorf("transfer in: %w", err)
		}
		if err := p.custody.Transfer(ctx, tx, custody.Transfer{
			From: vaultOut, To: req.Dest, Amount: res.AmountOut, Authority: identity.PoolAuthority(req.Pool),
		}); err != nil {
			return fmt.Errorf("transfer out: %w", err)
		}

		if err := tx.PutPool(ctx, req.Pool, res.Pool); err != nil {
			return fmt.Errorf("persist pool: %w", err)
		}

		receipt.InputIsA = req.InputIsA
		receipt.AmountIn = req.AmountIn
		receipt.AmountOut = res.AmountOut
		settle(receipt, req.Pool, res.Pool)
		return nil
	})
}

func loadPool(ctx context.Context, tx *ledger.Tx, id, vaultA, vaultB common.Hash) (model.Pool, error) {
	pool, ok, err := tx.Pool(ctx, id)
	if err != nil {
		return model.Pool{}, fmt.Errorf("load pool: %w", err)
	}
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", amm.ErrPoolNotFound, id.Hex())
	}
	if err := identity.VerifyVaults(pool, vaultA, vaultB); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

// checkVault requires an existing, empty account of the expected asset.
// Reserves start at zero, so a pre-funded vault would break the mirror.
func checkVault(ctx context.Context, tx *ledger.Tx, vault, asset common.Hash) error {
	account, ok, err := tx.Account(ctx, vault)
	if err != nil {
		return fmt.Errorf("load vault: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", custody.ErrAccountNotFound, vault.Hex())
	}
	if account.Asset != asset {
		return fmt.Errorf("%w: vault %s holds asset %s, want %s", amm.ErrValidation, vault.Hex(), account.Asset.Hex(), asset.Hex())
	}
	if account.Balance != 0 {
		return fmt.Errorf("%w: vault %s is not empty", amm.ErrValidation, vault.Hex())
	}
	return nil
}
