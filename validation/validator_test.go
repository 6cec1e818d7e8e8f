package validation

import (
	"errors"
	"math/big"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/pricing"
	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/holiman/uint256"
)

func newTestTx(nonce, gas uint64, tip, feeCap int64) *primitives.Transaction {
	return &primitives.Transaction{
		Type:      primitives.DynamicFeeTxType,
		Nonce:     nonce,
		Gas:       gas,
		GasTipCap: big.NewInt(tip),
		GasFeeCap: big.NewInt(feeCap),
		Value:     big.NewInt(0),
	}
}

func balance(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestValidateNonceTooLow(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(4, 21_000, 2_000_000_000, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 5, Balance: balance(1 << 62)}
	err := v.Validate(tx, account, 0)
	assertKind(t, err, KindNonceTooLow)
}

func TestValidateNonceTooHigh(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(7, 21_000, 2_000_000_000, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 5, Balance: balance(1 << 62)}
	err := v.Validate(tx, account, 0)
	assertKind(t, err, KindNonceTooHigh)
}

func TestValidateInsufficientBalance(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(0, 21_000, 2_000_000_000, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 0, Balance: balance(1)}
	err := v.Validate(tx, account, 0)
	assertKind(t, err, KindInsufficientBalance)
}

func TestValidateAccountHasCode(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(0, 21_000, 2_000_000_000, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 0, Balance: balance(1 << 62), HasCode: true}
	err := v.Validate(tx, account, 0)
	assertKind(t, err, KindAccountHasCode)
}

func TestValidateBlockGasExhausted(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(0, 21_000, 2_000_000_000, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 0, Balance: balance(1 << 62)}
	err := v.Validate(tx, account, pricing.DefaultBlockGasLimit)
	assertKind(t, err, KindBlockGasExhausted)
}

func TestValidateFeeTooLow(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	tx := newTestTx(0, 21_000, 1, 100_000_000_000)
	account := primitives.AccountState{TransactionCount: 0, Balance: balance(1 << 62)}
	err := v.Validate(tx, account, 0)
	assertKind(t, err, KindFeeTooLow)
}

func TestValidateHappyPathSequentialNonces(t *testing.T) {
	v := New(pricing.DefaultModel(), pricing.DefaultBlockGasLimit)
	account := primitives.AccountState{TransactionCount: 10, Balance: balance(1 << 62)}

	preconfirmed := uint64(0)
	for i, nonce := range []uint64{10, 11, 12} {
		tx := newTestTx(nonce, 21_000, 5_000_000_000, 100_000_000_000)
		if err := v.Validate(tx, account, preconfirmed); err != nil {
			t.Fatalf("tx %d: unexpected error: %v", i, err)
		}
		account.TransactionCount++
		preconfirmed += tx.Gas
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if verr.Kind != want {
		t.Fatalf("expected kind %v, got %v (%s)", want, verr.Kind, verr.msg)
	}
}
