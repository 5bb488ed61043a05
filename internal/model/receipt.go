package model

// Operation names recorded in receipts.
const (
	OpInitialize = "initialize"
	OpDeposit    = "deposit"
	OpRedeem     = "redeem"
	OpSwap       = "swap"
)

// Receipt is the journal entry written for a committed operation.
type Receipt struct {
	ID          string `json:"id"`
	Op          string `json:"op"`
	Pool        string `json:"pool"`
	Signer      string `json:"signer"`
	AmountA     uint64 `json:"amount_a,omitempty"`
	AmountB     uint64 `json:"amount_b,omitempty"`
	Shares      uint64 `json:"shares,omitempty"`
	InputIsA    bool   `json:"input_is_a,omitempty"`
	AmountIn    uint64 `json:"amount_in,omitempty"`
	AmountOut   uint64 `json:"amount_out,omitempty"`
	ReserveA    uint64 `json:"reserve_a"`
	ReserveB    uint64 `json:"reserve_b"`
	TotalShares uint64 `json:"total_shares"`
	CommittedAt string `json:"committed_at"`
}
