package signing

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// ECDSASecretKeySize is the canonical 32-byte secp256k1 scalar length
// (spec §6 "Secret material").
const ECDSASecretKeySize = 32

var (
	ErrInvalidECDSASecretKey = errors.New("signing: invalid ECDSA secret key bytes")
	ErrInvalidECDSASignature = errors.New("signing: invalid ECDSA signature bytes")
)

// ECDSASecretKey wraps a secp256k1 private key that produces the compact
// signature format the `x-bolt-signature` RPC header carries (spec §4.7).
// The server itself only verifies that header, and the constraints engine
// signs with BLS alone.
type ECDSASecretKey struct {
	inner *secp256k1.PrivateKey
}

// ECDSASecretKeyFromBytes parses a 32-byte secp256k1 scalar.
func ECDSASecretKeyFromBytes(b []byte) (*ECDSASecretKey, error) {
	if len(b) != ECDSASecretKeySize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidECDSASecretKey, len(b))
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	return &ECDSASecretKey{inner: priv}, nil
}

// Bytes returns the key's canonical 32-byte scalar encoding.
func (k *ECDSASecretKey) Bytes() []byte {
	return k.inner.Serialize()
}

// SignCompact signs digest (expected to already be a 32-byte hash) and
// returns the 65-byte [recovery-id-prefixed r || s] compact signature
// used for the `x-bolt-signature` header and sender recovery elsewhere in
// the module.
func (k *ECDSASecretKey) SignCompact(digest primitives.Hash) []byte {
	return ecdsa.SignCompact(k.inner, digest[:], false)
}

// RecoverAddress recovers the signer's 20-byte Ethereum-style address
// from a 65-byte compact signature over digest, mirroring
// primitives.Transaction.Sender's recovery path — used to authenticate
// the `x-bolt-signature` header against a registered proposer key (spec
// §4.7).
func RecoverAddress(digest primitives.Hash, compactSig []byte) (primitives.Address, error) {
	if len(compactSig) != 65 {
		return primitives.Address{}, fmt.Errorf("%w: length %d", ErrInvalidECDSASignature, len(compactSig))
	}
	pub, _, err := ecdsa.RecoverCompact(compactSig, digest[:])
	if err != nil {
		return primitives.Address{}, fmt.Errorf("%w: %v", ErrInvalidECDSASignature, err)
	}
	addrHash := primitives.Keccak256(pub.SerializeUncompressed()[1:])
	var addr primitives.Address
	copy(addr[:], addrHash[12:])
	return addr, nil
}
