package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/holiman/uint256"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// ExecutionClient reads account state from an execution-layer JSON-RPC
// endpoint, satisfying StateProvider. It mirrors the teacher's
// opnodeClient idiom in miner/preconf_checker.go: a plain *http.Client
// posting a raw JSON-RPC string and unmarshaling the result, rather than
// depending on a full ethclient.Client.
type ExecutionClient struct {
	url    string
	client *http.Client
}

// NewExecutionClient returns an ExecutionClient talking to url. If auth is
// non-nil its Transport wraps the client, authenticating every request
// with a fresh engine-API bearer token (spec.md §9).
func NewExecutionClient(url string, auth *JWTAuth) *ExecutionClient {
	c := &http.Client{}
	if auth != nil {
		c.Transport = auth.Transport(nil)
	}
	return &ExecutionClient{url: url, client: c}
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ExecutionClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("chain: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chain: build %s request: %w", method, err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chain: reading %s response: %w", method, err)
	}

	var parsed jsonrpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("chain: decoding %s response: %w", method, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chain: %s: execution client returned %d %s", method, parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.Result, nil
}

// AccountState reads {nonce, balance, has_code} for addr at the latest
// block, satisfying StateProvider (spec §6).
func (c *ExecutionClient) AccountState(ctx context.Context, addr primitives.Address) (primitives.AccountState, error) {
	nonceRaw, err := c.call(ctx, "eth_getTransactionCount", []any{addr.String(), "latest"})
	if err != nil {
		return primitives.AccountState{}, err
	}
	nonce, err := decodeQuantity(nonceRaw)
	if err != nil {
		return primitives.AccountState{}, fmt.Errorf("chain: decoding nonce: %w", err)
	}

	balanceRaw, err := c.call(ctx, "eth_getBalance", []any{addr.String(), "latest"})
	if err != nil {
		return primitives.AccountState{}, err
	}
	balance, err := decodeQuantity(balanceRaw)
	if err != nil {
		return primitives.AccountState{}, fmt.Errorf("chain: decoding balance: %w", err)
	}

	codeRaw, err := c.call(ctx, "eth_getCode", []any{addr.String(), "latest"})
	if err != nil {
		return primitives.AccountState{}, err
	}
	var codeHex string
	if err := json.Unmarshal(codeRaw, &codeHex); err != nil {
		return primitives.AccountState{}, fmt.Errorf("chain: decoding code: %w", err)
	}

	return primitives.AccountState{
		TransactionCount: nonce.Uint64(),
		Balance:          balance,
		HasCode:          codeHex != "" && codeHex != "0x",
	}, nil
}

// decodeQuantity decodes a `0x`-prefixed minimal-length hex string, the wire
// format every eth_* JSON-RPC quantity uses.
func decodeQuantity(raw json.RawMessage) (*uint256.Int, error) {
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, err
	}
	n := new(uint256.Int)
	if _, err := n.SetFromHex(hexStr); err != nil {
		return nil, err
	}
	return n, nil
}
