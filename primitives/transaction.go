package primitives

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// TxType identifies the EIP-2718 transaction envelope type. Zero is the
// untyped legacy transaction, which has no type-byte prefix on the wire.
type TxType uint8

const (
	LegacyTxType    TxType = 0x00
	AccessListTxType TxType = 0x01
	DynamicFeeTxType TxType = 0x02
	BlobTxType      TxType = 0x03
)

// Transaction is a decoded, signed Ethereum transaction envelope. It covers
// exactly the fields the validator and pricing engine need (§4.2, §4.3 of
// the spec): nonce/gas/fee-cap bookkeeping, blob fee extension, and sender
// recovery. It deliberately does not interpret calldata or access lists
// beyond carrying their raw bytes through to the signing hash.
type Transaction struct {
	Type TxType

	ChainID   *big.Int
	Nonce     uint64
	GasTipCap *big.Int // max_priority_fee_per_gas; gas price for legacy/type-1
	GasFeeCap *big.Int // max_fee_per_gas; gas price for legacy/type-1
	Gas       uint64   // gas_limit
	To        *Address // nil for contract creation
	Value     *big.Int
	Data      []byte

	accessListRaw []byte // raw RLP of the access list, carried through verbatim

	MaxFeePerBlobGas *big.Int
	BlobHashes       []Hash
	BlobGasUsed      uint64 // derived: len(BlobHashes) * BlobTxBlobGasPerBlob

	V, R, S *big.Int

	raw    []byte
	hash   *Hash
	sender *Address
}

var (
	ErrEmptyTransaction   = errors.New("primitives: empty transaction bytes")
	ErrUnsupportedTxType  = errors.New("primitives: unsupported transaction type")
	ErrInvalidSignature   = errors.New("primitives: invalid transaction signature")
	ErrTxMissingSignature = errors.New("primitives: transaction missing v/r/s")
)

// BlobTxBlobGasPerBlob is the fixed gas cost of a single EIP-4844 blob.
// Mirrors consensus/misc/eip4844.BlobTxBlobGasPerBlob in the upstream
// go-ethereum constant table.
const BlobTxBlobGasPerBlob = 1 << 17

// DecodeTx parses a 0x-prefixed hex-encoded pooled transaction envelope, as
// received in an InclusionRequest's `txs` array.
func DecodeTx(hexStr string) (*Transaction, error) {
	raw, err := decodeHex(hexStr)
	if err != nil {
		return nil, fmt.Errorf("primitives: decode tx hex: %w", err)
	}
	return DecodeTxBytes(raw)
}

// DecodeTxBytes parses a raw pooled transaction envelope.
func DecodeTxBytes(raw []byte) (*Transaction, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyTransaction
	}

	tx := &Transaction{raw: append([]byte(nil), raw...)}

	// EIP-2718: a byte < 0xc0 that isn't a valid RLP list-start marks a
	// typed transaction; legacy transactions always start with an RLP list
	// header (>= 0xc0).
	if raw[0] >= 0xc0 {
		tx.Type = LegacyTxType
		if err := tx.decodeLegacyBody(raw); err != nil {
			return nil, err
		}
		return tx, nil
	}

	switch TxType(raw[0]) {
	case AccessListTxType:
		tx.Type = AccessListTxType
		if err := tx.decodeAccessListBody(raw[1:]); err != nil {
			return nil, err
		}
	case DynamicFeeTxType:
		tx.Type = DynamicFeeTxType
		if err := tx.decodeDynamicFeeBody(raw[1:]); err != nil {
			return nil, err
		}
	case BlobTxType:
		tx.Type = BlobTxType
		if err := tx.decodeBlobBody(raw[1:]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedTxType, raw[0])
	}
	return tx, nil
}

func readOptionalAddress(r *rlpReader) (*Address, error) {
	b, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) != 20 {
		return nil, fmt.Errorf("primitives: invalid 'to' address length %d", len(b))
	}
	var a Address
	copy(a[:], b)
	return &a, nil
}

func (tx *Transaction) decodeLegacyBody(raw []byte) error {
	top, err := newRLPReader(raw).enterList()
	if err != nil {
		return err
	}
	nonce, err := top.readUint64()
	if err != nil {
		return err
	}
	gasPrice, err := top.readBigInt()
	if err != nil {
		return err
	}
	gas, err := top.readUint64()
	if err != nil {
		return err
	}
	to, err := readOptionalAddress(top)
	if err != nil {
		return err
	}
	value, err := top.readBigInt()
	if err != nil {
		return err
	}
	data, err := top.readBytes()
	if err != nil {
		return err
	}
	v, err := top.readBigInt()
	if err != nil {
		return err
	}
	r, err := top.readBigInt()
	if err != nil {
		return err
	}
	s, err := top.readBigInt()
	if err != nil {
		return err
	}

	tx.Nonce = nonce
	tx.GasFeeCap = gasPrice
	tx.GasTipCap = gasPrice
	tx.Gas = gas
	tx.To = to
	tx.Value = value
	tx.Data = append([]byte(nil), data...)
	tx.V, tx.R, tx.S = v, r, s
	return nil
}

func (tx *Transaction) decodeAccessListBody(payload []byte) error {
	top, err := newRLPReader(payload).enterList()
	if err != nil {
		return err
	}
	chainID, err := top.readBigInt()
	if err != nil {
		return err
	}
	nonce, err := top.readUint64()
	if err != nil {
		return err
	}
	gasPrice, err := top.readBigInt()
	if err != nil {
		return err
	}
	gas, err := top.readUint64()
	if err != nil {
		return err
	}
	to, err := readOptionalAddress(top)
	if err != nil {
		return err
	}
	value, err := top.readBigInt()
	if err != nil {
		return err
	}
	data, err := top.readBytes()
	if err != nil {
		return err
	}
	accessList, err := top.readRawItem()
	if err != nil {
		return err
	}
	v, err := top.readBigInt()
	if err != nil {
		return err
	}
	r, err := top.readBigInt()
	if err != nil {
		return err
	}
	s, err := top.readBigInt()
	if err != nil {
		return err
	}

	tx.ChainID = chainID
	tx.Nonce = nonce
	tx.GasFeeCap = gasPrice
	tx.GasTipCap = gasPrice
	tx.Gas = gas
	tx.To = to
	tx.Value = value
	tx.Data = append([]byte(nil), data...)
	tx.accessListRaw = append([]byte(nil), accessList...)
	tx.V, tx.R, tx.S = v, r, s
	return nil
}

func (tx *Transaction) decodeDynamicFeeBody(payload []byte) error {
	top, err := newRLPReader(payload).enterList()
	if err != nil {
		return err
	}
	chainID, err := top.readBigInt()
	if err != nil {
		return err
	}
	nonce, err := top.readUint64()
	if err != nil {
		return err
	}
	tipCap, err := top.readBigInt()
	if err != nil {
		return err
	}
	feeCap, err := top.readBigInt()
	if err != nil {
		return err
	}
	gas, err := top.readUint64()
	if err != nil {
		return err
	}
	to, err := readOptionalAddress(top)
	if err != nil {
		return err
	}
	value, err := top.readBigInt()
	if err != nil {
		return err
	}
	data, err := top.readBytes()
	if err != nil {
		return err
	}
	accessList, err := top.readRawItem()
	if err != nil {
		return err
	}
	v, err := top.readBigInt()
	if err != nil {
		return err
	}
	r, err := top.readBigInt()
	if err != nil {
		return err
	}
	s, err := top.readBigInt()
	if err != nil {
		return err
	}

	tx.ChainID = chainID
	tx.Nonce = nonce
	tx.GasTipCap = tipCap
	tx.GasFeeCap = feeCap
	tx.Gas = gas
	tx.To = to
	tx.Value = value
	tx.Data = append([]byte(nil), data...)
	tx.accessListRaw = append([]byte(nil), accessList...)
	tx.V, tx.R, tx.S = v, r, s
	return nil
}

func (tx *Transaction) decodeBlobBody(payload []byte) error {
	top, err := newRLPReader(payload).enterList()
	if err != nil {
		return err
	}
	chainID, err := top.readBigInt()
	if err != nil {
		return err
	}
	nonce, err := top.readUint64()
	if err != nil {
		return err
	}
	tipCap, err := top.readBigInt()
	if err != nil {
		return err
	}
	feeCap, err := top.readBigInt()
	if err != nil {
		return err
	}
	gas, err := top.readUint64()
	if err != nil {
		return err
	}
	to, err := readOptionalAddress(top)
	if err != nil {
		return err
	}
	if to == nil {
		return errors.New("primitives: blob transaction must have a 'to' address")
	}
	value, err := top.readBigInt()
	if err != nil {
		return err
	}
	data, err := top.readBytes()
	if err != nil {
		return err
	}
	accessList, err := top.readRawItem()
	if err != nil {
		return err
	}
	maxFeePerBlobGas, err := top.readBigInt()
	if err != nil {
		return err
	}
	blobHashesRaw, err := top.readRawList()
	if err != nil {
		return err
	}
	v, err := top.readBigInt()
	if err != nil {
		return err
	}
	r, err := top.readBigInt()
	if err != nil {
		return err
	}
	s, err := top.readBigInt()
	if err != nil {
		return err
	}

	hashes := make([]Hash, 0, len(blobHashesRaw))
	for _, hb := range blobHashesRaw {
		var h Hash
		copy(h[32-len(hb):], hb)
		hashes = append(hashes, h)
	}

	tx.ChainID = chainID
	tx.Nonce = nonce
	tx.GasTipCap = tipCap
	tx.GasFeeCap = feeCap
	tx.Gas = gas
	tx.To = to
	tx.Value = value
	tx.Data = append([]byte(nil), data...)
	tx.accessListRaw = append([]byte(nil), accessList...)
	tx.MaxFeePerBlobGas = maxFeePerBlobGas
	tx.BlobHashes = hashes
	tx.BlobGasUsed = uint64(len(hashes)) * BlobTxBlobGasPerBlob
	tx.V, tx.R, tx.S = v, r, s
	return nil
}

// Hash returns the transaction's canonical hash: keccak256 of the exact
// envelope bytes as received (type byte included, for typed transactions).
func (tx *Transaction) Hash() Hash {
	if tx.hash != nil {
		return *tx.hash
	}
	h := Keccak256(tx.raw)
	tx.hash = &h
	return h
}

// EnvelopeEncoded returns the raw pooled-transaction bytes exactly as
// decoded, matching alloy's `envelope_encoded()` used in the auxiliary
// ECDSA digest (spec §4.4).
func (tx *Transaction) EnvelopeEncoded() []byte {
	return append([]byte(nil), tx.raw...)
}

func leftPad32(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// Sender recovers and caches the transaction's sender address from its
// ECDSA signature over the type-specific signing hash.
func (tx *Transaction) Sender() (Address, error) {
	if tx.sender != nil {
		return *tx.sender, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return Address{}, ErrTxMissingSignature
	}

	signingHash, recID, err := tx.signingHashAndRecoveryID()
	if err != nil {
		return Address{}, err
	}

	sig := make([]byte, 65)
	sig[0] = 27 + recID
	copy(sig[1:33], leftPad32(tx.R.Bytes()))
	copy(sig[33:65], leftPad32(tx.S.Bytes()))

	pub, _, err := ecdsa.RecoverCompact(sig, signingHash[:])
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	addrHash := Keccak256(pub.SerializeUncompressed()[1:])
	var addr Address
	copy(addr[:], addrHash[12:])
	tx.sender = &addr
	return addr, nil
}

// signingHashAndRecoveryID derives the pre-signature hash and the 0/1
// recovery id, handling both EIP-155 legacy encoding and the explicit
// yParity field carried by typed transactions.
func (tx *Transaction) signingHashAndRecoveryID() (Hash, byte, error) {
	switch tx.Type {
	case LegacyTxType:
		v := new(big.Int).Set(tx.V)
		var chainID *big.Int
		var recID byte
		if v.Cmp(big.NewInt(35)) >= 0 {
			// EIP-155: v = chainId*2 + 35 + recId
			tmp := new(big.Int).Sub(v, big.NewInt(35))
			recID = byte(new(big.Int).Mod(tmp, big.NewInt(2)).Uint64())
			chainID = new(big.Int).Div(tmp, big.NewInt(2))
		} else {
			recID = byte(new(big.Int).Sub(v, big.NewInt(27)).Uint64())
		}

		toBytes := []byte{}
		if tx.To != nil {
			toBytes = tx.To[:]
		}
		fields := [][]byte{
			rlpEncodeUint64(tx.Nonce),
			rlpEncodeBigInt(tx.GasFeeCap),
			rlpEncodeUint64(tx.Gas),
			rlpEncodeBytes(toBytes),
			rlpEncodeBigInt(tx.Value),
			rlpEncodeBytes(tx.Data),
		}
		if chainID != nil && chainID.Sign() > 0 {
			fields = append(fields,
				rlpEncodeBigInt(chainID),
				rlpEncodeBytes(nil),
				rlpEncodeBytes(nil),
			)
		}
		payload := rlpEncodeList(fields...)
		return Keccak256(payload), recID, nil

	case AccessListTxType, DynamicFeeTxType, BlobTxType:
		if tx.V.BitLen() > 8 {
			return Hash{}, 0, fmt.Errorf("primitives: unexpected yParity value %s", tx.V)
		}
		recID := byte(tx.V.Uint64())

		toBytes := []byte{}
		if tx.To != nil {
			toBytes = tx.To[:]
		}

		var fields [][]byte
		fields = append(fields,
			rlpEncodeBigInt(tx.ChainID),
			rlpEncodeUint64(tx.Nonce),
		)
		if tx.Type != AccessListTxType {
			fields = append(fields, rlpEncodeBigInt(tx.GasTipCap), rlpEncodeBigInt(tx.GasFeeCap))
		} else {
			fields = append(fields, rlpEncodeBigInt(tx.GasFeeCap))
		}
		fields = append(fields,
			rlpEncodeUint64(tx.Gas),
			rlpEncodeBytes(toBytes),
			rlpEncodeBigInt(tx.Value),
			rlpEncodeBytes(tx.Data),
			tx.accessListRaw,
		)
		if tx.Type == BlobTxType {
			fields = append(fields, rlpEncodeBigInt(tx.MaxFeePerBlobGas))
			hashItems := make([][]byte, len(tx.BlobHashes))
			for i, h := range tx.BlobHashes {
				hashItems[i] = rlpEncodeBytes(h[:])
			}
			fields = append(fields, rlpEncodeList(hashItems...))
		}

		payload := append([]byte{byte(tx.Type)}, rlpEncodeList(fields...)...)
		return Keccak256(payload), recID, nil
	}
	return Hash{}, 0, ErrUnsupportedTxType
}

// MaxTransactionCost computes fee_cap*gas_limit + value, where fee_cap is
// max_fee_per_gas plus max_priority_fee_per_gas for dynamic-fee and blob
// transactions (legacy and access-list transactions contribute their gas
// price once), plus the blob fee term for blob-carrying transactions. Spec §4.2: this is
// reproduced verbatim from the source, including the arithmetically
// questionable blob term (see spec §9 Open Question (a) / DESIGN.md).
func (tx *Transaction) MaxTransactionCost() *big.Int {
	feeCap := new(big.Int).Set(tx.GasFeeCap)
	if tx.GasTipCap != nil && tx.Type != LegacyTxType && tx.Type != AccessListTxType {
		feeCap.Add(feeCap, tx.GasTipCap)
	}
	if tx.Type == BlobTxType {
		blobTerm := new(big.Int).Add(tx.MaxFeePerBlobGas, new(big.Int).SetUint64(tx.BlobGasUsed))
		feeCap.Add(feeCap, blobTerm)
	}
	cost := new(big.Int).Mul(feeCap, new(big.Int).SetUint64(tx.Gas))
	cost.Add(cost, tx.Value)
	return cost
}

// EffectivePriorityFee returns the priority fee per gas the transaction
// offers, defaulting to zero when GasTipCap is nil per spec §4.2. Decoded
// transactions always set it; legacy and access-list transactions carry
// their gas price there.
func (tx *Transaction) EffectivePriorityFee() *big.Int {
	if tx.GasTipCap == nil {
		return big.NewInt(0)
	}
	return tx.GasTipCap
}
