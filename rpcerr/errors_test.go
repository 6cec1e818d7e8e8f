package rpcerr

import (
	"errors"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/pricing"
)

func TestFromPricingMapsToRejected(t *testing.T) {
	m := pricing.DefaultModel()
	_, perr := m.MinPriorityFee(0, 0)
	if perr == nil {
		t.Fatal("expected pricing error")
	}
	got := FromPricing(perr)
	if got.Code != CodeRejected {
		t.Fatalf("expected CodeRejected, got %v", got.Code)
	}
}

func TestFromPricingFallsBackToInternal(t *testing.T) {
	got := FromPricing(errors.New("not a pricing error"))
	if got.Code != CodeInternal {
		t.Fatalf("expected CodeInternal, got %v", got.Code)
	}
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected Internal to wrap cause via Unwrap")
	}
	if err.Code != CodeInternal {
		t.Fatalf("expected CodeInternal, got %v", err.Code)
	}
}

func TestSentinelCodes(t *testing.T) {
	cases := map[*Error]Code{
		ErrNoSignature:    CodeNoSignature,
		ErrSignatureParse: CodeSignatureParse,
		ErrInvalidSignature: CodeInvalidSignature,
		ErrMalformedHeader: CodeMalformedHeader,
		ErrDuplicate:      CodeDuplicate,
		ErrUnknownMethod:  CodeUnknownMethod,
		ErrInvalidRequest: CodeInvalidRequest,
		ErrParse:          CodeParseError,
		ErrNoAvailablePubkeyForSlot: CodeNoAvailablePubkeyForSlot,
	}
	for err, code := range cases {
		if err.Code != code {
			t.Fatalf("expected %v, got %v", code, err.Code)
		}
	}
}
