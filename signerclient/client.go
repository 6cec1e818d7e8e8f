// Package signerclient talks to a Dirk-style remote BLS signer over a
// mutually authenticated transport, exposing the Lister/Signer/
// AccountManager service trio (spec.md §4.6 "Remote signer client
// (state machine)"). Grounded on bolt-cli/src/common/dirk.rs's three
// service surface and four-state ResponseState, but built on net/http +
// crypto/tls rather than gRPC+tonic: the pack's other gRPC users
// (go-ethereum, erigon's net/grpc debug transports) only carry generated
// node-to-node protobuf stubs, none retrieved here in a form adaptable to
// a Dirk-shaped service, so this mirrors the teacher's own hand-rolled
// JSON-over-HTTP client idiom for an external RPC service instead
// (miner/preconf_checker.go's opnodeClient posting JSON-RPC to op-node
// over *http.Client), generalized to mutual TLS. See DESIGN.md.
package signerclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ResponseState is the four-state outcome carried by every Dirk response
// (spec §4.6): Succeeded is the sole success path for Sign/List; Denied is
// a valid non-error outcome for Unlock/Lock (wrong passphrase, keep
// trying); Unknown and Failed are hard failures.
type ResponseState string

const (
	StateUnknown   ResponseState = "UNKNOWN"
	StateSucceeded ResponseState = "SUCCEEDED"
	StateDenied    ResponseState = "DENIED"
	StateFailed    ResponseState = "FAILED"
)

// TLSCredentials configures the mutually authenticated transport (spec
// §4.6 "client identity + optional CA"; bolt-cli/src/common/dirk.rs's
// TlsCredentials/compose_credentials).
type TLSCredentials struct {
	ClientCertPath string
	ClientKeyPath  string
	CACertPath     string // optional
}

func (c TLSCredentials) tlsConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("signerclient: load client identity: %w", err)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}

	if c.CACertPath != "" {
		caBytes, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("signerclient: read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("signerclient: failed to parse CA certificate")
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// requestTimeout bounds a single round trip to the remote signer; the
// sidecar's own 6s request deadline (spec §5) is the caller-supplied
// ctx's concern, this is a floor against a hung connection.
const requestTimeout = 5 * time.Second

// Client is a connected Dirk-style remote signer client.
type Client struct {
	baseURL string
	http    *http.Client
}

// Connect dials addr (an https:// base URL) using the given mutual-TLS
// credentials (spec §4.6, mirrors Dirk.connect).
func Connect(addr string, creds TLSCredentials) (*Client, error) {
	tlsConfig, err := creds.tlsConfig()
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: addr,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
	}, nil
}

func (c *Client) post(ctx context.Context, path string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("signerclient: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("signerclient: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("signerclient: %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("signerclient: %s: unexpected status %d", path, httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}

// ListAccountsRequest/Response mirror Dirk's Lister service (spec §4.6
// "ListAccounts(paths) → {accounts, distributed_accounts}").
type ListAccountsRequest struct {
	Paths []string `json:"paths"`
}

// Account pairs a Dirk account name ("wallet/account") with the BLS
// public key it controls.
type Account struct {
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
}

type ListAccountsResponse struct {
	State               ResponseState `json:"state"`
	Accounts            []Account     `json:"accounts"`
	DistributedAccounts []Account     `json:"distributed_accounts"`
}

// ListAccounts requests all accounts under the given wallet paths.
func (c *Client) ListAccounts(ctx context.Context, paths []string) (*ListAccountsResponse, error) {
	var resp ListAccountsResponse
	if err := c.post(ctx, "/v1/lister/accounts", ListAccountsRequest{Paths: paths}, &resp); err != nil {
		return nil, err
	}
	if resp.State != StateSucceeded {
		return nil, fmt.Errorf("signerclient: list accounts: state %s", resp.State)
	}
	return &resp, nil
}

type unlockRequest struct {
	Account    string `json:"account"`
	Passphrase string `json:"passphrase"`
}

type stateResponse struct {
	State ResponseState `json:"state"`
}

// Unlock attempts to unlock account with passphrase. A false return with
// a nil error means the passphrase was denied — the caller should try the
// next candidate passphrase, not treat this as failure (spec §4.6).
func (c *Client) Unlock(ctx context.Context, account, passphrase string) (bool, error) {
	var resp stateResponse
	if err := c.post(ctx, "/v1/accountmanager/unlock", unlockRequest{Account: account, Passphrase: passphrase}, &resp); err != nil {
		return false, err
	}
	switch resp.State {
	case StateSucceeded:
		return true, nil
	case StateDenied:
		return false, nil
	default:
		return false, fmt.Errorf("signerclient: unlock account %s: state %s", account, resp.State)
	}
}

type lockRequest struct {
	Account string `json:"account"`
}

// Lock re-locks account. A best-effort operation: the caller typically
// logs rather than fails the overall flow on error (spec §4.5 "failure to
// re-lock is logged, not fatal").
func (c *Client) Lock(ctx context.Context, account string) (bool, error) {
	var resp stateResponse
	if err := c.post(ctx, "/v1/accountmanager/lock", lockRequest{Account: account}, &resp); err != nil {
		return false, err
	}
	switch resp.State {
	case StateSucceeded:
		return true, nil
	case StateDenied:
		return false, nil
	default:
		return false, fmt.Errorf("signerclient: lock account %s: state %s", account, resp.State)
	}
}

type signRequest struct {
	Data    []byte `json:"data"`
	Domain  []byte `json:"domain"`
	Account string `json:"id_account"`
}

type signResponse struct {
	State     ResponseState `json:"state"`
	Signature []byte        `json:"signature"`
}

// Sign requests a signature over (digest, domain) from account. The
// remote signer computes the domain-separated signing root itself
// (hash-tree-root server-side), so the client sends the unhashed message
// digest plus the domain, not a pre-computed root (spec §4.6).
func (c *Client) Sign(ctx context.Context, account string, digest, domain [32]byte) ([]byte, error) {
	var resp signResponse
	req := signRequest{Data: digest[:], Domain: domain[:], Account: account}
	if err := c.post(ctx, "/v1/signer/sign", req, &resp); err != nil {
		return nil, err
	}
	if resp.State != StateSucceeded {
		return nil, fmt.Errorf("signerclient: sign with account %s: state %s", account, resp.State)
	}
	if len(resp.Signature) == 0 {
		return nil, fmt.Errorf("signerclient: sign with account %s: empty signature returned", account)
	}
	return resp.Signature, nil
}
