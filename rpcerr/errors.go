// Package rpcerr maps the sidecar's internal error taxonomy (spec §7) to
// the reserved JSON-RPC 2.0 error codes of spec §6, mirroring the
// teacher's sentinel-error style in miner/preconf_checker.go (one Err...
// var per failure reason, wrapped with fmt.Errorf at the call site).
package rpcerr

import (
	"errors"
	"fmt"

	"github.com/bolt-protocol/bolt-sidecar/pricing"
	"github.com/bolt-protocol/bolt-sidecar/validation"
)

// Code is a JSON-RPC 2.0 error code, restricted to the set this service
// reserves (spec §6).
type Code int

const (
	CodeRejected               Code = -32000
	CodeDuplicate              Code = -32001
	CodeInternal               Code = -32002
	CodeNoSignature            Code = -32003
	CodeInvalidSignature       Code = -32004
	CodeSignatureParse         Code = -32005
	CodeValidation             Code = -32006
	CodeMalformedHeader        Code = -32007
	CodeNoAvailablePubkeyForSlot Code = -32008
	CodeInvalidRequest         Code = -32600
	CodeUnknownMethod          Code = -32601
	CodeParseError             Code = -32700
)

// Error is a JSON-RPC-ready error: a stable Code plus a human-readable
// message, optionally wrapping a cause for logging.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

var (
	ErrNoSignature     = newError(CodeNoSignature, "missing x-bolt-signature header", nil)
	ErrSignatureParse  = newError(CodeSignatureParse, "could not parse signature", nil)
	ErrInvalidSignature = newError(CodeInvalidSignature, "signature does not match registered proposer key", nil)
	ErrMalformedHeader = newError(CodeMalformedHeader, "malformed x-bolt-signature header", nil)
	ErrDuplicate       = newError(CodeDuplicate, "duplicate request within the active slot window", nil)
	ErrUnknownMethod   = newError(CodeUnknownMethod, "unknown method", nil)
	ErrInvalidRequest  = newError(CodeInvalidRequest, "invalid request", nil)
	ErrParse           = newError(CodeParseError, "parse error", nil)
	ErrNoAvailablePubkeyForSlot = newError(CodeNoAvailablePubkeyForSlot, "no delegated pubkey available for slot", nil)
	ErrInternal        = newError(CodeInternal, "internal error", nil)
)

// Internal wraps an unexpected error as an internal JSON-RPC error (spec
// §7 "Internal").
func Internal(cause error) *Error {
	return newError(CodeInternal, "internal error", cause)
}

// Consensus reports that state for the target slot is not available
// (spec §7 "Consensus").
func Consensus(cause error) *Error {
	return newError(CodeValidation, "consensus state unavailable", cause)
}

// FromValidation maps a *validation.Error to the JSON-RPC validation code
// (spec §7 "Validation"); every validation.Kind maps to the same code —
// the distinguishing detail rides in Message.
func FromValidation(err error) *Error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return newError(CodeValidation, verr.Error(), err)
	}
	return Internal(err)
}

// FromPricing maps a *pricing.Error raised while computing the minimum
// priority fee to the JSON-RPC rejection code (spec §7 "Rejection").
func FromPricing(err error) *Error {
	var perr *pricing.Error
	if errors.As(err, &perr) {
		return newError(CodeRejected, perr.Error(), err)
	}
	return Internal(err)
}

// Rejected reports a syntactically valid but semantically refused request
// (spec §7 "Rejection").
func Rejected(message string) *Error {
	return newError(CodeRejected, message, nil)
}
