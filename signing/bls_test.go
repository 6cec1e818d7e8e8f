package signing

import (
	"bytes"
	"testing"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x42}, 32)
	sk, err := KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}
	pk := sk.PublicKey()

	msg := bytes.Repeat([]byte{0x01}, 32)
	sig := sk.Sign(msg)

	if !Verify(pk, msg, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x42}, 32)
	sk, err := KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}
	pk := sk.PublicKey()

	sig := sk.Sign(bytes.Repeat([]byte{0x01}, 32))

	if Verify(pk, bytes.Repeat([]byte{0x02}, 32), sig) {
		t.Fatal("expected signature verification to fail for a different message")
	}
}

func TestPublicKeySerializeRoundTrip(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x07}, 32)
	sk, err := KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}
	pk := sk.PublicKey()

	b := pk.Bytes()
	if len(b) != PublicKeySize {
		t.Fatalf("expected %d bytes, got %d", PublicKeySize, len(b))
	}

	pk2, err := PublicKeyFromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pk2.Bytes(), b) {
		t.Fatal("expected round-tripped public key to re-serialize identically")
	}
}

func TestSignatureSerializeRoundTrip(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x09}, 32)
	sk, err := KeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}
	sig := sk.Sign(bytes.Repeat([]byte{0x03}, 32))

	b := sig.Bytes()
	if len(b) != SignatureSize {
		t.Fatalf("expected %d bytes, got %d", SignatureSize, len(b))
	}

	sig2, err := SignatureFromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sig2.Bytes(), b) {
		t.Fatal("expected round-tripped signature to re-serialize identically")
	}
}

func TestSecretKeyFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := SecretKeyFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short secret key")
	}
}
