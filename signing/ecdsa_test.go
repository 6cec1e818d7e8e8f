package signing

import (
	"bytes"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

func TestECDSASignAndRecoverRoundTrip(t *testing.T) {
	keyBytes := bytes.Repeat([]byte{0x11}, 32)
	sk, err := ECDSASecretKeyFromBytes(keyBytes)
	if err != nil {
		t.Fatal(err)
	}

	var digest primitives.Hash
	digest[0] = 0xAB

	sig := sk.SignCompact(digest)
	if len(sig) != 65 {
		t.Fatalf("expected 65-byte compact signature, got %d", len(sig))
	}

	addr, err := RecoverAddress(digest, sig)
	if err != nil {
		t.Fatal(err)
	}
	if addr == (primitives.Address{}) {
		t.Fatal("expected non-zero recovered address")
	}
}

func TestECDSASecretKeyFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := ECDSASecretKeyFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestRecoverAddressRejectsWrongLengthSignature(t *testing.T) {
	var digest primitives.Hash
	if _, err := RecoverAddress(digest, []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short signature")
	}
}
