package validation

import (
	"github.com/bolt-protocol/bolt-sidecar/pricing"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/holiman/uint256"
)

// Validator runs the ordered checks of spec §4.2 against a candidate
// transaction, an account state snapshot, and the slot's running
// preconfirmed gas total.
type Validator struct {
	Pricing       pricing.Model
	BlockGasLimit uint64
}

// New returns a Validator wired to the given pricing model and block gas
// limit.
func New(pricingModel pricing.Model, blockGasLimit uint64) *Validator {
	return &Validator{Pricing: pricingModel, BlockGasLimit: blockGasLimit}
}

// Validate runs the five checks from spec §4.2 in order, returning the
// first failure. account is the sender's cached state (with
// TransactionCount already advanced for any earlier transactions from the
// same sender admitted within this request, per the "speculative nonce
// increment" rule). preconfirmedGas is the slot's running total excluding
// tx.Gas.
func (v *Validator) Validate(tx *primitives.Transaction, account primitives.AccountState, preconfirmedGas uint64) error {
	if tx.Nonce < account.TransactionCount {
		return newError(KindNonceTooLow, "nonce too low: account is at %d, tx has %d", account.TransactionCount, tx.Nonce)
	}
	if tx.Nonce > account.TransactionCount {
		return newError(KindNonceTooHigh, "nonce too high: account is at %d, tx has %d", account.TransactionCount, tx.Nonce)
	}

	cost, overflow := uint256.FromBig(tx.MaxTransactionCost())
	if overflow || account.Balance == nil || cost.Gt(account.Balance) {
		return newError(KindInsufficientBalance, "insufficient balance: need %s, have %s", cost, account.Balance)
	}

	if account.HasCode {
		return newError(KindAccountHasCode, "account has code, only EOAs may originate preconfirmed transactions")
	}

	if tx.Gas+preconfirmedGas > v.BlockGasLimit {
		return newError(KindBlockGasExhausted, "block gas exhausted: tx needs %d, %d already preconfirmed of %d limit", tx.Gas, preconfirmedGas, v.BlockGasLimit)
	}

	minFee, err := v.Pricing.MinPriorityFee(tx.Gas, preconfirmedGas)
	if err != nil {
		return newError(KindFeeTooLow, "pricing rejected request: %v", err)
	}
	offered := tx.EffectivePriorityFee()
	if offered.Sign() >= 0 && offered.IsUint64() && offered.Uint64() < minFee {
		return newError(KindFeeTooLow, "offered priority fee %s below minimum %d", offered, minFee)
	}
	if offered.Sign() < 0 {
		return newError(KindFeeTooLow, "offered priority fee is negative")
	}

	return nil
}
