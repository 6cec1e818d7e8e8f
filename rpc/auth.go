package rpc

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
	"github.com/bolt-protocol/bolt-sidecar/rpcerr"
	"github.com/bolt-protocol/bolt-sidecar/signing"
)

const signatureHeader = "x-bolt-signature"

// authenticate recovers the sender of the `x-bolt-signature` header over
// requestDigest and checks it against the registered proposer address
// set (spec §4.7). The header carries a 65-byte compact ECDSA signature,
// hex-encoded with an optional 0x prefix.
func (s *Server) authenticate(r *http.Request, requestDigest primitives.Hash) *rpcerr.Error {
	header := r.Header.Get(signatureHeader)
	if header == "" {
		return rpcerr.ErrNoSignature
	}

	sigHex := strings.TrimPrefix(strings.TrimPrefix(header, "0x"), "0X")
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != 65 {
		return rpcerr.ErrMalformedHeader
	}

	addr, err := signing.RecoverAddress(requestDigest, sig)
	if err != nil {
		return rpcerr.ErrSignatureParse
	}

	if _, ok := s.proposers[addr]; !ok {
		return rpcerr.ErrInvalidSignature
	}
	return nil
}
