package delegation

import (
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// sign computes the domain-separated signing root for msg and signs it
// with sk, then verifies the result before returning (spec §4.5 "every
// emitted message is re-verified locally before being persisted").
func sign(sk *signing.SecretKey, msg Message, domain signing.Domain) (*Signed, error) {
	digest := msg.Digest()
	signingRoot := signing.ComputeSigningRoot(digest, domain)

	sig := sk.Sign(signingRoot[:])
	signed := &Signed{Message: msg, Signature: *sig}

	if err := signed.Verify(signingRoot); err != nil {
		return nil, fmt.Errorf("delegation: freshly produced signature failed verification: %w", err)
	}
	return signed, nil
}

// LocalSource produces signed delegation/revocation messages directly from
// in-memory BLS secret keys (spec.md §4.5 item 1 "Raw keys"; grounded on
// bolt-cli/src/commands/delegate.rs's generate_from_local_keys).
type LocalSource struct {
	SecretKeys []*signing.SecretKey
	Domain     signing.Domain
}

// NewLocalSource builds a LocalSource over a set of raw 32-byte secret keys.
func NewLocalSource(domain signing.Domain, secretKeys ...*signing.SecretKey) *LocalSource {
	return &LocalSource{SecretKeys: secretKeys, Domain: domain}
}

// Generate signs one message per configured secret key, delegating (or
// revoking) to delegateePubkey.
func (s *LocalSource) Generate(action Action, delegateePubkey [signing.PublicKeySize]byte) ([]*Signed, error) {
	out := make([]*Signed, 0, len(s.SecretKeys))
	for _, sk := range s.SecretKeys {
		var validatorPubkey [signing.PublicKeySize]byte
		copy(validatorPubkey[:], sk.PublicKey().Bytes())

		msg := Message{Action: action, ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
		signed, err := sign(sk, msg, s.Domain)
		if err != nil {
			return nil, fmt.Errorf("delegation: local source: %w", err)
		}
		out = append(out, signed)
	}
	return out, nil
}
