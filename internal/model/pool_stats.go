package model

// PoolStats summarizes the journaled activity of one pool. Amount sums are
// decimal strings because they can exceed 64 bits.
type PoolStats struct {
	Pool           string `json:"pool"`
	SwapCount      uint64 `json:"swap_count"`
	DepositCount   uint64 `json:"deposit_count"`
	RedeemCount    uint64 `json:"redeem_count"`
	VolumeInA      string `json:"volume_in_a"`
	VolumeInB      string `json:"volume_in_b"`
	VolumeOutA     string `json:"volume_out_a"`
	VolumeOutB     string `json:"volume_out_b"`
	DepositedA     string `json:"deposited_a"`
	DepositedB     string `json:"deposited_b"`
	RedeemedA      string `json:"redeemed_a"`
	RedeemedB      string `json:"redeemed_b"`
	ReserveA       uint64 `json:"reserve_a"`
	ReserveB       uint64 `json:"reserve_b"`
	TotalShares    uint64 `json:"total_shares"`
	Price          string `json:"price,omitempty"`
	FirstCommitted string `json:"first_committed"`
	LastCommitted  string `json:"last_committed"`
}
