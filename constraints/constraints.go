// Package constraints implements spec §3/§4.4: the ConstraintsMessage
// type, its BLS digest and auxiliary ECDSA digest, and the
// SignedConstraints wire type forwarded to the downstream PBS pipeline.
// Grounded on
// original_source/bolt-sidecar/src/primitives/constraint.rs.
package constraints

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// Message is the ConstraintsMessage of spec §3: a validator pubkey, the
// target slot, the top-of-block flag, and the constrained transactions.
type Message struct {
	Pubkey       [48]byte
	Slot         uint64
	Top          bool
	Transactions []*primitives.Transaction
}

// BLSDigest computes SHA-256(pubkey || slot_le8 || top_u8 ||
// concat(tx.hash for tx in transactions)) (spec §3).
func (m *Message) BLSDigest() [32]byte {
	h := sha256.New()
	h.Write(m.Pubkey[:])

	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], m.Slot)
	h.Write(slotBuf[:])

	var top byte
	if m.Top {
		top = 1
	}
	h.Write([]byte{top})

	for _, tx := range m.Transactions {
		txHash := tx.Hash()
		h.Write(txHash[:])
	}

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// ECDSADigest computes the auxiliary digest exposed to the proposer's
// on-chain acknowledgement path (spec §4.4): keccak256(pubkey ||
// slot_le8 || concat(envelope_encoded(tx) for tx)).
func (m *Message) ECDSADigest() primitives.Hash {
	parts := make([][]byte, 0, len(m.Transactions)+2)
	parts = append(parts, m.Pubkey[:])

	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], m.Slot)
	parts = append(parts, slotBuf[:])

	for _, tx := range m.Transactions {
		parts = append(parts, tx.EnvelopeEncoded())
	}
	return primitives.Keccak256(parts...)
}

// Signed is the SignedConstraints wire type (spec §3): a ConstraintsMessage
// plus the BLS signature over its commit-boost signing root.
type Signed struct {
	Message   *Message
	Signature signing.Signature
}

type wireMessage struct {
	Pubkey       string   `json:"pubkey"`
	Slot         uint64   `json:"slot"`
	Top          bool     `json:"top"`
	Transactions []string `json:"transactions"`
}

type wireSigned struct {
	Message   wireMessage `json:"message"`
	Signature string      `json:"signature"`
}

// MarshalJSON renders the SignedConstraints in the hex-string wire shape
// (0x-prefixed pubkey/tx/signature, spec §6).
func (s *Signed) MarshalJSON() ([]byte, error) {
	txs := make([]string, len(s.Message.Transactions))
	for i, tx := range s.Message.Transactions {
		txs[i] = fmt.Sprintf("0x%x", tx.EnvelopeEncoded())
	}
	w := wireSigned{
		Message: wireMessage{
			Pubkey:       fmt.Sprintf("0x%x", s.Message.Pubkey[:]),
			Slot:         s.Message.Slot,
			Top:          s.Message.Top,
			Transactions: txs,
		},
		Signature: fmt.Sprintf("0x%x", s.Signature.Bytes()),
	}
	return json.Marshal(w)
}
