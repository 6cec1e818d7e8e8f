// Package primitives holds the sidecar's core wire types: inclusion
// requests, account state, and the transaction envelope shared by the
// validator, pricing and constraint-signing subsystems.
package primitives

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a 20-byte Ethereum account address.
type Address [20]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Hex() string { return a.String() }

// Hash is a 32-byte digest.
type Hash [32]byte

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte { return h[:] }

// HexToAddress parses a 0x-prefixed (or bare) 40-hex-char address.
func HexToAddress(s string) (Address, error) {
	var a Address
	b, err := decodeHex(s)
	if err != nil {
		return a, err
	}
	if len(b) != 20 {
		return a, fmt.Errorf("primitives: address must be 20 bytes, got %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// HexToHash parses a 0x-prefixed (or bare) 64-hex-char digest.
func HexToHash(s string) (Hash, error) {
	var h Hash
	b, err := decodeHex(s)
	if err != nil {
		return h, err
	}
	if len(b) != 32 {
		return h, fmt.Errorf("primitives: hash must be 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HexToFixedBytes parses a 0x-prefixed (or bare) hex string into exactly
// n bytes.
func HexToFixedBytes(s string, n int) ([]byte, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("primitives: expected %d bytes, got %d", n, len(b))
	}
	return b, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}
