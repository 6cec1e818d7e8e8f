package pricing

import (
	"math/big"

	"github.com/holiman/uint256"
)

// basefeeMultiplier/basefeeDivisor implement the EIP-1559 +12.5% step as
// fixed-point integer math, grounded on
// bolt-sidecar/src/common.rs::calculate_max_basefee. The same curve
// governs blob-base-fee projection (spec §4.3), since both follow the
// same "can go up by 1/8th, plus one, per block" rule.
const (
	basefeeMultiplier = 1125
	basefeeDivisor    = 1000

	// KindBaseFeeOverflow is distinct from the pricing.Kind values above:
	// base-fee projection is a sibling computation in the same package,
	// not a MinPriorityFee precondition.
	KindBaseFeeOverflow Kind = 100
)

// ErrBaseFeeOverflow is returned when projecting the base fee forward
// would overflow 128-bit unsigned arithmetic (spec §4.3).
var ErrBaseFeeOverflow = &Error{Kind: KindBaseFeeOverflow, message: "max base fee projection overflowed"}

var maxUint128 = func() *uint256.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 128)
	v.Sub(v, big.NewInt(1))
	u, _ := uint256.FromBig(v)
	return u
}()

// CalculateMaxBaseFee projects the maximum possible base fee `blockDiff`
// blocks ahead of `current`, applying the EIP-1559 +12.5% rule
// iteratively: b <- floor(b*1125/1000) + 1. Returns ErrBaseFeeOverflow if
// any step would overflow 128-bit unsigned arithmetic.
func CalculateMaxBaseFee(current *uint256.Int, blockDiff uint64) (*uint256.Int, error) {
	multiplier := uint256.NewInt(basefeeMultiplier)
	divisor := uint256.NewInt(basefeeDivisor)
	one := uint256.NewInt(1)
	limit := new(uint256.Int).Div(maxUint128, multiplier)

	maxBaseFee := new(uint256.Int).Set(current)
	for i := uint64(0); i < blockDiff; i++ {
		if maxBaseFee.Gt(limit) {
			return nil, ErrBaseFeeOverflow
		}
		maxBaseFee = new(uint256.Int).Mul(maxBaseFee, multiplier)
		maxBaseFee.Div(maxBaseFee, divisor)
		maxBaseFee.Add(maxBaseFee, one)
	}
	return maxBaseFee, nil
}
