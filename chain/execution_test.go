package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

func rpcHandler(t *testing.T, byMethod map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		result, ok := byMethod[req.Method]
		if !ok {
			t.Fatalf("unexpected method %s", req.Method)
		}
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}
}

func TestExecutionClientAccountState(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"eth_getTransactionCount": `"0x5"`,
		"eth_getBalance":          `"0xde0b6b3a7640000"`,
		"eth_getCode":             `"0x"`,
	}))
	defer srv.Close()

	c := NewExecutionClient(srv.URL, nil)
	state, err := c.AccountState(context.Background(), primitives.Address{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.TransactionCount != 5 {
		t.Fatalf("expected nonce 5, got %d", state.TransactionCount)
	}
	if state.Balance.Uint64() != 1_000_000_000_000_000_000 {
		t.Fatalf("unexpected balance: %s", state.Balance.String())
	}
	if state.HasCode {
		t.Fatal("expected HasCode false for empty code")
	}
}

func TestExecutionClientAccountStateHasCode(t *testing.T) {
	srv := httptest.NewServer(rpcHandler(t, map[string]string{
		"eth_getTransactionCount": `"0x0"`,
		"eth_getBalance":          `"0x0"`,
		"eth_getCode":             `"0x6080604052"`,
	}))
	defer srv.Close()

	c := NewExecutionClient(srv.URL, nil)
	state, err := c.AccountState(context.Background(), primitives.Address{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state.HasCode {
		t.Fatal("expected HasCode true for non-empty code")
	}
}

func TestExecutionClientPropagatesJSONRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"internal error"}}`))
	}))
	defer srv.Close()

	c := NewExecutionClient(srv.URL, nil)
	_, err := c.AccountState(context.Background(), primitives.Address{3})
	if err == nil {
		t.Fatal("expected error")
	}
}
