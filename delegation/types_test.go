package delegation

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/signing"
)

func TestDigestVariesWithAction(t *testing.T) {
	var v, d [signing.PublicKeySize]byte
	m1 := NewDelegationMessage(v, d)
	m2 := NewRevocationMessage(v, d)

	if m1.Digest() == m2.Digest() {
		t.Fatal("expected action byte to change the digest")
	}
}

func TestDigestIsStableAcrossCalls(t *testing.T) {
	var v, d [signing.PublicKeySize]byte
	m := NewDelegationMessage(v, d)
	if m.Digest() != m.Digest() {
		t.Fatal("expected digest to be deterministic")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x11}, 32)
	sk, err := signing.KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}

	var validatorPubkey, delegateePubkey [signing.PublicKeySize]byte
	copy(validatorPubkey[:], sk.PublicKey().Bytes())
	delegateePubkey[0] = 0xaa

	msg := NewDelegationMessage(validatorPubkey, delegateePubkey)
	domain := signing.Domain{}
	signingRoot := signing.ComputeSigningRoot(msg.Digest(), domain)
	sig := sk.Sign(signingRoot[:])

	signed := &Signed{Message: msg, Signature: *sig}

	b, err := json.Marshal(signed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"action":0`)) {
		t.Fatalf("expected action field, got %s", b)
	}

	var roundTripped Signed
	if err := json.Unmarshal(b, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if roundTripped.Message.ValidatorPubkey != validatorPubkey {
		t.Fatal("expected validator pubkey to round-trip")
	}
	if roundTripped.Message.DelegateePubkey != delegateePubkey {
		t.Fatal("expected delegatee pubkey to round-trip")
	}
	if roundTripped.Signature.Bytes()[0] != sig.Bytes()[0] {
		t.Fatal("expected signature to round-trip")
	}

	if err := roundTripped.Verify(signingRoot); err != nil {
		t.Fatalf("expected round-tripped message to verify, got %v", err)
	}
}

func TestVerifyRejectsWrongSigningRoot(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x22}, 32)
	sk, err := signing.KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}

	var validatorPubkey, delegateePubkey [signing.PublicKeySize]byte
	copy(validatorPubkey[:], sk.PublicKey().Bytes())

	msg := NewDelegationMessage(validatorPubkey, delegateePubkey)
	domain := signing.Domain{}
	signingRoot := signing.ComputeSigningRoot(msg.Digest(), domain)
	sig := sk.Sign(signingRoot[:])

	signed := &Signed{Message: msg, Signature: *sig}

	var wrongRoot [32]byte
	wrongRoot[0] = 0x01
	if err := signed.Verify(wrongRoot); err == nil {
		t.Fatal("expected verification to fail against a different signing root")
	}
}
