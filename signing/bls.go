// Package signing implements the BLS12-381 (min-pk) signing primitives and
// the commit-boost domain-separated signing root used throughout the
// delegation and constraint subsystems (spec §2 "Signing primitives",
// §3 "Signing root"). Grounded on the teacher's go.mod BLS dependency pair
// (github.com/supranational/blst, github.com/protolambda/bls12-381-util) —
// neither is imported directly by any Go file in the retrieved pack (they
// arrive as transitive deps of the teacher's beacon-light-client tooling),
// so the call shapes below follow the public blst min-pk API as published,
// not a pack example.
package signing

import (
	"errors"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// dst is the domain separation tag for the min-pk signature scheme, as
// used throughout the eth2/commit-boost ecosystem for proof-of-possession
// signatures.
const dst = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"

// PublicKeySize and SignatureSize are the compressed min-pk encoding
// lengths: public keys live in G1 (48 bytes), signatures in G2 (96
// bytes) — matching spec §3's bls48/bls96 wire types.
const (
	PublicKeySize = 48
	SignatureSize = 96
	SecretKeySize = 32
)

var (
	ErrInvalidSecretKey = errors.New("signing: invalid BLS secret key bytes")
	ErrInvalidPublicKey = errors.New("signing: invalid BLS public key bytes")
	ErrInvalidSignature = errors.New("signing: invalid BLS signature bytes")
)

// SecretKey is a BLS12-381 secret scalar.
type SecretKey struct {
	inner *blst.SecretKey
}

// PublicKey is a compressed G1 point.
type PublicKey struct {
	inner *blst.P1Affine
}

// Signature is a compressed G2 point.
type Signature struct {
	inner *blst.P2Affine
}

// SecretKeyFromBytes parses a 32-byte IKM-derived BLS secret key, as
// produced by ikm key-gen over 32 random bytes (spec §6 "Secret
// material").
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if len(b) != SecretKeySize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSecretKey, len(b))
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, ErrInvalidSecretKey
	}
	return &SecretKey{inner: sk}, nil
}

// KeyGen derives a secret key from at least 32 bytes of key material via
// the standard BLS IKM key-generation procedure.
func KeyGen(ikm []byte) (*SecretKey, error) {
	if len(ikm) < SecretKeySize {
		return nil, fmt.Errorf("%w: ikm must be at least %d bytes", ErrInvalidSecretKey, SecretKeySize)
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, ErrInvalidSecretKey
	}
	return &SecretKey{inner: sk}, nil
}

// Bytes serializes the secret key to its canonical 32-byte form.
func (sk *SecretKey) Bytes() []byte {
	return sk.inner.Serialize()
}

// PublicKey derives the public key corresponding to sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	pk := new(blst.P1Affine).From(sk.inner)
	return &PublicKey{inner: pk}
}

// Sign produces a signature over msg (the 32-byte signing root, per spec
// §3).
func (sk *SecretKey) Sign(msg []byte) *Signature {
	sig := new(blst.P2Affine).Sign(sk.inner, msg, []byte(dst))
	return &Signature{inner: sig}
}

// PublicKeyFromBytes parses a compressed 48-byte G1 public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPublicKey, len(b))
	}
	pk := new(blst.P1Affine).Deserialize(b)
	if pk == nil {
		return nil, ErrInvalidPublicKey
	}
	return &PublicKey{inner: pk}, nil
}

// Bytes serializes the public key to its canonical 48-byte compressed
// form.
func (pk *PublicKey) Bytes() []byte {
	return pk.inner.Compress()
}

// SignatureFromBytes parses a compressed 96-byte G2 signature.
func SignatureFromBytes(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(b))
	}
	sig := new(blst.P2Affine).Deserialize(b)
	if sig == nil {
		return nil, ErrInvalidSignature
	}
	return &Signature{inner: sig}, nil
}

// Bytes serializes the signature to its canonical 96-byte compressed
// form.
func (sig *Signature) Bytes() []byte {
	return sig.inner.Compress()
}

// Verify checks sig over msg against pk (spec §8 "verify(...) holds").
func Verify(pk *PublicKey, msg []byte, sig *Signature) bool {
	return sig.inner.Verify(true, pk.inner, true, msg, []byte(dst))
}
