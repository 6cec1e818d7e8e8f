package delegation

import (
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/delegation/keystore"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

// KeystoreSource produces signed delegation/revocation messages from an
// EIP-2335 encrypted keystore directory (spec.md §4.5 item 2).
type KeystoreSource struct {
	Dir      string
	Resolver keystore.PassphraseResolver
	Domain   signing.Domain
}

// NewKeystoreSource builds a KeystoreSource over a keystore directory and
// passphrase resolver (either SharedPassphrase or PerPubkeyDir).
func NewKeystoreSource(dir string, resolver keystore.PassphraseResolver, domain signing.Domain) *KeystoreSource {
	return &KeystoreSource{Dir: dir, Resolver: resolver, Domain: domain}
}

// Generate decrypts every keystore in Dir and signs one message per
// recovered secret.
func (s *KeystoreSource) Generate(action Action, delegateePubkey [signing.PublicKeySize]byte) ([]*Signed, error) {
	decrypted, err := keystore.Load(s.Dir, s.Resolver)
	if err != nil {
		return nil, fmt.Errorf("delegation: keystore source: %w", err)
	}

	out := make([]*Signed, 0, len(decrypted))
	for _, d := range decrypted {
		sk, err := signing.SecretKeyFromBytes(d.Secret)
		if err != nil {
			return nil, fmt.Errorf("delegation: keystore source: %s: %w", d.Path, err)
		}

		var validatorPubkey [signing.PublicKeySize]byte
		copy(validatorPubkey[:], sk.PublicKey().Bytes())

		msg := Message{Action: action, ValidatorPubkey: validatorPubkey, DelegateePubkey: delegateePubkey}
		signed, err := sign(sk, msg, s.Domain)
		if err != nil {
			return nil, fmt.Errorf("delegation: keystore source: %s: %w", d.Path, err)
		}
		out = append(out, signed)
	}
	return out, nil
}
