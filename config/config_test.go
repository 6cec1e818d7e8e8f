package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPassesExceptMandatoryFields(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected Validate to fail on an unconfigured Default()")
	}
}

func TestValidateRequiresRelayURLs(t *testing.T) {
	cfg := Default()
	cfg.ProposerAddresses = []string{"0x1111111111111111111111111111111111111111"}
	cfg.KeystoreDir = "/tmp/keys"
	cfg.GenesisValidatorsRoot = "0x" + repeat("11", 32)

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error with no relay_urls")
	}

	cfg.RelayURLs = []string{"https://relay.example"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProposerAddressListParsesHex(t *testing.T) {
	cfg := Default()
	cfg.ProposerAddresses = []string{"0x1111111111111111111111111111111111111111"}

	addrs, err := cfg.ProposerAddressList()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 1 || addrs[0].String() != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected addresses: %v", addrs)
	}
}

func TestProposerAddressListRejectsMalformed(t *testing.T) {
	cfg := Default()
	cfg.ProposerAddresses = []string{"not-an-address"}

	if _, err := cfg.ProposerAddressList(); err == nil {
		t.Fatal("expected error")
	}
}

func TestInitialForkVersionBytesDefaultsToZero(t *testing.T) {
	cfg := Default()
	fv, err := cfg.InitialForkVersionBytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv != ([4]byte{}) {
		t.Fatalf("expected zero fork version, got %v", fv)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sidecar.toml")
	contents := `
rpc_listen_addr = "127.0.0.1:9000"
beacon_node_url = "ws://beacon:3500/eth/v1/events"
execution_node_url = "http://geth:8551"
relay_urls = ["https://relay-a.example", "https://relay-b.example"]
proposer_addresses = ["0x1111111111111111111111111111111111111111"]
keystore_dir = "/data/keystore"
genesis_validators_root = "0x` + repeat("22", 32) + `"
block_gas_limit = 36000000
signing_workers = 8
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RPCListenAddr != "127.0.0.1:9000" {
		t.Fatalf("unexpected rpc listen addr: %s", cfg.RPCListenAddr)
	}
	if len(cfg.RelayURLs) != 2 {
		t.Fatalf("expected 2 relay urls, got %d", len(cfg.RelayURLs))
	}
	if cfg.BlockGasLimit != 36_000_000 {
		t.Fatalf("unexpected block gas limit: %d", cfg.BlockGasLimit)
	}
	if cfg.SigningWorkers != 8 {
		t.Fatalf("unexpected signing workers: %d", cfg.SigningWorkers)
	}
	// Unspecified fields keep their Default() value.
	if cfg.Version != Default().Version {
		t.Fatalf("expected default version to survive, got %s", cfg.Version)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
