package delegation

import (
	"bytes"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/signing"
)

func mustKeyGen(t *testing.T, seed byte) *signing.SecretKey {
	t.Helper()
	sk, err := signing.KeyGen(bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return sk
}

func TestLocalSourceGeneratesOneMessagePerKey(t *testing.T) {
	sk1 := mustKeyGen(t, 0x01)
	sk2 := mustKeyGen(t, 0x02)
	source := NewLocalSource(signing.Domain{}, sk1, sk2)

	var delegatee [signing.PublicKeySize]byte
	delegatee[0] = 0xff

	signed, err := source.Generate(ActionDelegation, delegatee)
	if err != nil {
		t.Fatal(err)
	}
	if len(signed) != 2 {
		t.Fatalf("expected 2 signed messages, got %d", len(signed))
	}
	for _, s := range signed {
		if s.Message.Action != ActionDelegation {
			t.Fatal("expected delegation action")
		}
		if s.Message.DelegateePubkey != delegatee {
			t.Fatal("expected delegatee pubkey to be set")
		}
	}
}

func TestLocalSourceMessageVerifies(t *testing.T) {
	sk := mustKeyGen(t, 0x03)
	domain := signing.ComputeDomain(signing.ForkVersion{0x01, 0x02, 0x03, 0x04}, [32]byte{})
	source := NewLocalSource(domain, sk)

	var delegatee [signing.PublicKeySize]byte
	signed, err := source.Generate(ActionRevocation, delegatee)
	if err != nil {
		t.Fatal(err)
	}

	signingRoot := signing.ComputeSigningRoot(signed[0].Message.Digest(), domain)
	if err := signed[0].Verify(signingRoot); err != nil {
		t.Fatalf("expected signed message to verify, got %v", err)
	}
}
