package primitives

import "golang.org/x/crypto/sha3"

// Keccak256 hashes the concatenation of data using the original (pre-NIST)
// Keccak-256 permutation, matching Ethereum's hashing convention.
func Keccak256(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}
