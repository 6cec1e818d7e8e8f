package rpc

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

func newAuthTestServer(proposer primitives.Address) *Server {
	return New("v1.0.0-test", nil, nil, nil, nil, []primitives.Address{proposer})
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	sk := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x1}, 32))
	s := newAuthTestServer(addressFromPrivKey(sk))

	req := httptest.NewRequest("POST", "/", nil)
	rpcErr := s.authenticate(req, primitives.Hash{1})
	if rpcErr == nil || rpcErr.Code != -32003 {
		t.Fatalf("expected -32003, got %+v", rpcErr)
	}
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	sk := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x1}, 32))
	s := newAuthTestServer(addressFromPrivKey(sk))

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set(signatureHeader, "not-hex")
	rpcErr := s.authenticate(req, primitives.Hash{1})
	if rpcErr == nil || rpcErr.Code != -32007 {
		t.Fatalf("expected -32007, got %+v", rpcErr)
	}
}

func TestAuthenticateAcceptsRegisteredProposer(t *testing.T) {
	sk := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x1}, 32))
	s := newAuthTestServer(addressFromPrivKey(sk))

	digest := primitives.Hash{1, 2, 3}
	compact := ecdsa.SignCompact(sk, digest[:], false)

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set(signatureHeader, "0x"+hexEncode(compact))

	if rpcErr := s.authenticate(req, digest); rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}
}

func TestAuthenticateRejectsUnregisteredSigner(t *testing.T) {
	registered := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x1}, 32))
	other := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x2}, 32))
	s := newAuthTestServer(addressFromPrivKey(registered))

	digest := primitives.Hash{1, 2, 3}
	compact := ecdsa.SignCompact(other, digest[:], false)

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set(signatureHeader, "0x"+hexEncode(compact))

	rpcErr := s.authenticate(req, digest)
	if rpcErr == nil || rpcErr.Code != -32004 {
		t.Fatalf("expected -32004, got %+v", rpcErr)
	}
}
