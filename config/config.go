// Package config loads and validates the sidecar's runtime
// configuration (spec.md §9 "Configuration"), styled after the
// teacher's cmd/utils flag-parsing idiom: a plain Config struct
// populated either from CLI flags or a TOML file, validated once before
// cmd/boltsidecar wires the rest of the process together.
package config

import (
	"fmt"
	"os"

	"github.com/naoina/toml"

	"github.com/bolt-protocol/bolt-sidecar/primitives"
)

// Config is the sidecar's complete runtime configuration.
type Config struct {
	// RPCListenAddr is the address the JSON-RPC HTTP server binds to
	// (spec §4.7).
	RPCListenAddr string `toml:"rpc_listen_addr"`

	// BeaconNodeURL is the upstream consensus beacon node's websocket
	// head-event endpoint (spec §6 HeadSource).
	BeaconNodeURL string `toml:"beacon_node_url"`

	// BeaconAPIURL is the beacon node's REST API base (proposer duties,
	// etc.), distinct from BeaconNodeURL's websocket event stream.
	BeaconAPIURL string `toml:"beacon_api_url"`

	// ExecutionNodeURL is the execution-layer JSON-RPC endpoint used to
	// read account state (spec §6 StateProvider).
	ExecutionNodeURL string `toml:"execution_node_url"`

	// ExecutionJWTSecret is a 64-hex-character engine-API JWT secret, or
	// a path to a file containing one (spec.md §9). Empty disables JWT
	// authentication against the execution node.
	ExecutionJWTSecret string `toml:"execution_jwt_secret"`

	// RelayURLs lists the downstream PBS relays signed constraint sets
	// are forwarded to (spec §2, §6 ConstraintSink). At least one is
	// required.
	RelayURLs []string `toml:"relay_urls"`

	// ProposerAddresses are the ECDSA addresses permitted to sign
	// `x-bolt-signature` (spec §4.7); every caller must recover to one
	// of these.
	ProposerAddresses []string `toml:"proposer_addresses"`

	// KeystoreDir holds EIP-2335 keystore files for the delegatee BLS
	// secrets this process holds signing authority for (spec §4.5).
	KeystoreDir string `toml:"keystore_dir"`

	// KeystorePassphraseFile, if set, is a single shared passphrase file
	// used for every keystore file in KeystoreDir; otherwise each
	// keystore's passphrase is read from a file under KeystoreDir named
	// after that keystore's public key in lowercase hex without 0x,
	// optionally with a .txt suffix (bolt-cli's per-pubkey passphrase
	// convention, see delegation/keystore.PerPubkeyDir).
	KeystorePassphraseFile string `toml:"keystore_passphrase_file"`

	// GenesisValidatorsRoot and ForkVersion seed the commit-boost
	// signing domain (spec §4.4) until the first beacon head updates
	// ForkVersion.
	GenesisValidatorsRoot string `toml:"genesis_validators_root"`
	ForkVersion           string `toml:"fork_version"`

	// BlockGasLimit feeds the pricing model (spec §4.1).
	BlockGasLimit uint64 `toml:"block_gas_limit"`

	// SigningWorkers bounds the BLS-signing worker pool (spec §5).
	SigningWorkers int `toml:"signing_workers"`

	// Version is reported verbatim by bolt_getVersion (spec §4.7).
	Version string `toml:"version"`
}

// Default returns a Config with every non-mandatory field at its
// production default, mirroring preconf.DefaultMinerConfig's role in the
// teacher.
func Default() Config {
	return Config{
		RPCListenAddr:    "0.0.0.0:8000",
		BeaconNodeURL:    "ws://127.0.0.1:3500/eth/v1/events",
		BeaconAPIURL:     "http://127.0.0.1:3500",
		ExecutionNodeURL: "http://127.0.0.1:8551",
		BlockGasLimit:    30_000_000,
		SigningWorkers:   4,
		Version:          "bolt-sidecar/v0.1.0",
	}
}

// Load reads and decodes a TOML config file, starting from Default() so
// the file only needs to override what differs from production
// defaults (naoina/toml, matching the teacher's go.mod dependency and
// cmd/geth's own config-file convention).
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields cmd/boltsidecar cannot safely default,
// failing fast before any network connection is attempted.
func (c Config) Validate() error {
	if c.BeaconNodeURL == "" {
		return fmt.Errorf("config: beacon_node_url is required")
	}
	if c.BeaconAPIURL == "" {
		return fmt.Errorf("config: beacon_api_url is required")
	}
	if c.ExecutionNodeURL == "" {
		return fmt.Errorf("config: execution_node_url is required")
	}
	if len(c.RelayURLs) == 0 {
		return fmt.Errorf("config: at least one relay_urls entry is required")
	}
	if len(c.ProposerAddresses) == 0 {
		return fmt.Errorf("config: at least one proposer_addresses entry is required")
	}
	if c.KeystoreDir == "" {
		return fmt.Errorf("config: keystore_dir is required")
	}
	if c.GenesisValidatorsRoot == "" {
		return fmt.Errorf("config: genesis_validators_root is required")
	}
	if c.SigningWorkers <= 0 {
		return fmt.Errorf("config: signing_workers must be positive")
	}
	return nil
}

// ProposerAddressList parses ProposerAddresses into primitives.Address
// values.
func (c Config) ProposerAddressList() ([]primitives.Address, error) {
	out := make([]primitives.Address, len(c.ProposerAddresses))
	for i, s := range c.ProposerAddresses {
		addr, err := primitives.HexToAddress(s)
		if err != nil {
			return nil, fmt.Errorf("config: proposer_addresses[%d]: %w", i, err)
		}
		out[i] = addr
	}
	return out, nil
}

// GenesisValidatorsRootHash parses GenesisValidatorsRoot into a fixed
// 32-byte array.
func (c Config) GenesisValidatorsRootHash() ([32]byte, error) {
	var out [32]byte
	h, err := primitives.HexToHash(c.GenesisValidatorsRoot)
	if err != nil {
		return out, fmt.Errorf("config: genesis_validators_root: %w", err)
	}
	return [32]byte(h), nil
}

// InitialForkVersionBytes parses ForkVersion into a fixed 4-byte array,
// defaulting to the zero fork version if unset (overridden by the first
// beacon head, spec §4.4).
func (c Config) InitialForkVersionBytes() ([4]byte, error) {
	var out [4]byte
	if c.ForkVersion == "" {
		return out, nil
	}
	b, err := primitives.HexToFixedBytes(c.ForkVersion, 4)
	if err != nil {
		return out, fmt.Errorf("config: fork_version: %w", err)
	}
	copy(out[:], b)
	return out, nil
}
