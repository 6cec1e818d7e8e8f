// Package pricing implements the preconfirmation pricing curve of spec
// §4.1: a pure function bounding the minimum acceptable priority fee as a
// function of remaining block gas. Grounded on
// bolt-sidecar/src/state/pricing.rs, carried over constant-for-constant,
// styled after the teacher's standalone-package idiom in
// consensus/misc/eip4844 (package-level constants, one exported type, one
// typed error per precondition).
package pricing

import (
	"fmt"
	"math"
)

// DefaultBlockGasLimit is the fallback block gas limit used when a caller
// doesn't override it.
const DefaultBlockGasLimit uint64 = 30_000_000

// baseMultiplier and gasScalar are the curve's fitted constants from
// https://research.lido.fi/t/a-pricing-model-for-inclusion-preconfirmations/9136
const (
	baseMultiplier = 0.019
	gasScalar      = 1.02e-6
)

// Error reports why a minimum-fee calculation could not be performed.
type Error struct {
	Kind    Kind
	message string
}

func (e *Error) Error() string { return e.message }

// Kind enumerates the pricing preconditions from spec §4.1, checked in
// order.
type Kind int

const (
	KindExceedsBlockLimit Kind = iota
	KindInvalidGasLimit
	KindInsufficientGas
)

// Model computes the minimum priority fee per gas for a given block gas
// limit. It holds no mutable state; all arithmetic is pure.
type Model struct {
	BlockGasLimit uint64
}

// NewModel returns a Model for the given block gas limit.
func NewModel(blockGasLimit uint64) Model {
	return Model{BlockGasLimit: blockGasLimit}
}

// DefaultModel returns a Model using DefaultBlockGasLimit.
func DefaultModel() Model {
	return NewModel(DefaultBlockGasLimit)
}

// MinPriorityFee computes the minimum priority fee per gas, in wei, for a
// transaction requesting incomingGas on top of preconfirmedGas gas already
// committed in the slot:
//
//	T(IG,UG) = 1e18 * BASE * ln((K*(L-UG)+1) / (K*(L-UG-IG)+1)) / IG
//
// The result is the floor of the computed value, as a non-negative
// integer. Double-precision float is used throughout except for the final
// truncation to integer (spec §4.1 "Numeric semantics").
func (m Model) MinPriorityFee(incomingGas, preconfirmedGas uint64) (uint64, error) {
	if err := m.validateInputs(incomingGas, preconfirmedGas); err != nil {
		return 0, err
	}

	remainingGas := m.BlockGasLimit - preconfirmedGas
	afterGas := remainingGas - incomingGas

	numerator := gasScalar*float64(remainingGas) + 1.0
	denominator := gasScalar*float64(afterGas) + 1.0

	inclusionTipEther := baseMultiplier * math.Log(numerator/denominator) / float64(incomingGas)
	inclusionTipWei := inclusionTipEther * 1e18

	if inclusionTipWei < 0 {
		return 0, nil
	}
	return uint64(inclusionTipWei), nil
}

func (m Model) validateInputs(incomingGas, preconfirmedGas uint64) error {
	if preconfirmedGas >= m.BlockGasLimit {
		return &Error{
			Kind:    KindExceedsBlockLimit,
			message: fmt.Sprintf("preconfirmed gas %d exceeds block limit %d", preconfirmedGas, m.BlockGasLimit),
		}
	}
	if incomingGas == 0 {
		return &Error{
			Kind:    KindInvalidGasLimit,
			message: "invalid gas limit: incoming gas is zero",
		}
	}
	remainingGas := m.BlockGasLimit - preconfirmedGas
	if incomingGas > remainingGas {
		return &Error{
			Kind:    KindInsufficientGas,
			message: fmt.Sprintf("insufficient remaining gas: requested %d, available %d", incomingGas, remainingGas),
		}
	}
	return nil
}
