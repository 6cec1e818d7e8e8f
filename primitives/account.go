package primitives

import "github.com/holiman/uint256"

// AccountState is the validator's view of one account, as of the latest
// observed head, optionally advanced by speculative preconfirmations
// (spec §3).
type AccountState struct {
	TransactionCount uint64
	Balance          *uint256.Int
	HasCode          bool
}

// Clone returns a deep copy, so speculative mutation of one view never
// aliases the cache's canonical entry.
func (a AccountState) Clone() AccountState {
	if a.Balance == nil {
		return a
	}
	return AccountState{
		TransactionCount: a.TransactionCount,
		Balance:          new(uint256.Int).Set(a.Balance),
		HasCode:          a.HasCode,
	}
}
