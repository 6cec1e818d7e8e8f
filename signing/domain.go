package signing

import "crypto/sha256"

// CommitBoostDomainMask is the 4-byte domain type reserved by the
// commit-boost specification for proposer commitment signing, mixed into
// the signing domain ahead of the fork-data root (spec §3 "Signing root",
// §9 Open Question (c)). Treated as a byte-exact constant per spec
// instruction, not reinvented.
var CommitBoostDomainMask = [4]byte{0x6d, 0x6d, 0x6f, 0x43}

// ForkVersion is a 4-byte consensus fork version (spec §6 "Chain
// configuration").
type ForkVersion [4]byte

// Domain is the 32-byte signing domain: the 4-byte domain mask followed
// by the leading 28 bytes of the fork-data root.
type Domain [32]byte

// ComputeForkDataRoot hashes the two-field {current_version,
// genesis_validators_root} SSZ container. Both fields are fixed-size, so
// the container's hash-tree root is the merkle root of exactly two
// 32-byte leaves: sha256(pad32(current_version) || genesis_validators_root).
func ComputeForkDataRoot(currentVersion ForkVersion, genesisValidatorsRoot [32]byte) [32]byte {
	var leaf0 [32]byte
	copy(leaf0[:4], currentVersion[:])

	h := sha256.New()
	h.Write(leaf0[:])
	h.Write(genesisValidatorsRoot[:])

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// ComputeDomain mixes CommitBoostDomainMask with the fork-data root to
// produce the 32-byte signing domain (spec §3, §9 Open Question (c)).
func ComputeDomain(currentVersion ForkVersion, genesisValidatorsRoot [32]byte) Domain {
	forkDataRoot := ComputeForkDataRoot(currentVersion, genesisValidatorsRoot)

	var domain Domain
	copy(domain[:4], CommitBoostDomainMask[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain
}

// ComputeSigningRoot derives the domain-separated signing root for a
// 32-byte message digest, matching the SigningData{object_root, domain}
// SSZ container's hash-tree root: sha256(object_root || domain).
func ComputeSigningRoot(digest [32]byte, domain Domain) [32]byte {
	h := sha256.New()
	h.Write(digest[:])
	h.Write(domain[:])

	var out [32]byte
	h.Sum(out[:0])
	return out
}
