// Package delegation builds and verifies signed delegation/revocation
// messages, by which a validator pubkey delegates (or revokes) preconfirmation
// signing authority to a delegatee pubkey (spec §4.5 "Delegation substrate").
// Grounded on bolt-cli/src/commands/delegate/types.rs and delegate.rs: the
// same closed {Delegation, Revocation} action union, the same
// SHA-256(action || validator_pubkey || delegatee_pubkey) digest, and the
// same untagged-union JSON shape.
package delegation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// Action distinguishes the two message kinds in the closed delegation/
// revocation union (spec §9 "Tagged unions over inheritance": modeled as a
// sum type, serialized untagged, disambiguated by the action byte).
type Action uint8

const (
	ActionDelegation Action = 0
	ActionRevocation Action = 1
)

func (a Action) String() string {
	switch a {
	case ActionDelegation:
		return "delegation"
	case ActionRevocation:
		return "revocation"
	default:
		return "unknown"
	}
}

// Message is the common shape shared by DelegationMessage and
// RevocationMessage (spec §4.4 "Delegation message").
type Message struct {
	Action          Action
	ValidatorPubkey [signing.PublicKeySize]byte
	DelegateePubkey [signing.PublicKeySize]byte
}

// NewDelegationMessage builds a Delegation-action message.
func NewDelegationMessage(validatorPubkey, delegateePubkey [signing.PublicKeySize]byte) Message {
	return Message{Action: ActionDelegation, ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
}

// NewRevocationMessage builds a Revocation-action message.
func NewRevocationMessage(validatorPubkey, delegateePubkey [signing.PublicKeySize]byte) Message {
	return Message{Action: ActionRevocation, ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
}

// Digest computes SHA-256(action || validator_pubkey || delegatee_pubkey),
// the 32-byte pre-image that is then passed through the commit-boost
// signing root (spec §4.4).
func (m Message) Digest() [32]byte {
	h := sha256.New()
	h.Write([]byte{byte(m.Action)})
	h.Write(m.ValidatorPubkey[:])
	h.Write(m.DelegateePubkey[:])

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Signed pairs a Message with its BLS signature over the message's
// domain-separated signing root.
type Signed struct {
	Message   Message
	Signature signing.Signature
}

// Verify re-checks the signature against the validator pubkey (spec §4.5
// "defense in depth against a misbehaving signer or a corrupted keystore" —
// every emitted message is re-verified locally before being persisted).
func (s *Signed) Verify(signingRoot [32]byte) error {
	pk, err := signing.PublicKeyFromBytes(s.Message.ValidatorPubkey[:])
	if err != nil {
		return fmt.Errorf("delegation: invalid validator pubkey: %w", err)
	}
	if !signing.Verify(pk, signingRoot[:], &s.Signature) {
		return fmt.Errorf("delegation: signature does not verify for action %s", s.Message.Action)
	}
	return nil
}

// wireMessage/wireSigned mirror bolt-cli's untagged serde shape:
//
//	{"message": {"action": 0, "validator_pubkey": "0x...", "delegatee_pubkey": "0x..."}, "signature": "0x..."}
type wireMessage struct {
	Action          uint8  `json:"action"`
	ValidatorPubkey string `json:"validator_pubkey"`
	DelegateePubkey string `json:"delegatee_pubkey"`
}

type wireSigned struct {
	Message   wireMessage `json:"message"`
	Signature string      `json:"signature"`
}

// MarshalJSON renders the untagged wire shape used by bolt-cli's output
// files and the delegation RPC endpoints that consume them.
func (s *Signed) MarshalJSON() ([]byte, error) {
	w := wireSigned{
		Message: wireMessage{
			Action:          uint8(s.Message.Action),
			ValidatorPubkey: fmt.Sprintf("0x%x", s.Message.ValidatorPubkey[:]),
			DelegateePubkey: fmt.Sprintf("0x%x", s.Message.DelegateePubkey[:]),
		},
		Signature: fmt.Sprintf("0x%x", s.Signature.Bytes()),
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the untagged wire shape back into a Signed message.
func (s *Signed) UnmarshalJSON(b []byte) error {
	var w wireSigned
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	validatorPubkey, err := decodeHexFixed48(w.Message.ValidatorPubkey)
	if err != nil {
		return fmt.Errorf("delegation: validator_pubkey: %w", err)
	}
	delegateePubkey, err := decodeHexFixed48(w.Message.DelegateePubkey)
	if err != nil {
		return fmt.Errorf("delegation: delegatee_pubkey: %w", err)
	}
	sigBytes, err := decodeHex(w.Signature)
	if err != nil {
		return fmt.Errorf("delegation: signature: %w", err)
	}
	sig, err := signing.SignatureFromBytes(sigBytes)
	if err != nil {
		return fmt.Errorf("delegation: signature: %w", err)
	}

	s.Message = Message{Action: Action(w.Message.Action), ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
	s.Signature = *sig
	return nil
}

func decodeHexFixed48(s string) ([signing.PublicKeySize]byte, error) {
	var out [signing.PublicKeySize]byte
	b, err := decodeHex(s)
	if err != nil {
		return out, err
	}
	if len(b) != signing.PublicKeySize {
		return out, fmt.Errorf("expected %d bytes, got %d", signing.PublicKeySize, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return hex.DecodeString(s)
}
