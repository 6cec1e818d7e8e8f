package config

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// Flags are the CLI flags cmd/boltsidecar registers, one per Config
// field, mirroring the teacher's cmd/utils package-level "XxxFlag" +
// cli.App.Flags convention.
var (
	RPCListenAddrFlag = &cli.StringFlag{
		Name:  "rpc-listen-addr",
		Usage: "Address the JSON-RPC server listens on",
	}
	BeaconNodeURLFlag = &cli.StringFlag{
		Name:  "beacon-node-url",
		Usage: "Beacon node event stream URL",
	}
	BeaconAPIURLFlag = &cli.StringFlag{
		Name:  "beacon-api-url",
		Usage: "Beacon node REST API base URL (proposer duties, etc.)",
	}
	ExecutionNodeURLFlag = &cli.StringFlag{
		Name:  "execution-node-url",
		Usage: "Execution-layer JSON-RPC URL",
	}
	ExecutionJWTSecretFlag = &cli.StringFlag{
		Name:  "execution-jwt-secret",
		Usage: "Engine API JWT secret, or a path to a file containing one",
	}
	RelayURLsFlag = &cli.StringFlag{
		Name:  "relay-urls",
		Usage: "Comma-separated list of downstream PBS relay base URLs",
	}
	ProposerAddressesFlag = &cli.StringFlag{
		Name:  "proposer-addresses",
		Usage: "Comma-separated list of ECDSA addresses authorized to call bolt_requestInclusion",
	}
	KeystoreDirFlag = &cli.StringFlag{
		Name:  "keystore-dir",
		Usage: "Directory of EIP-2335 keystore files holding delegatee BLS secrets",
	}
	KeystorePassphraseFileFlag = &cli.StringFlag{
		Name:  "keystore-passphrase-file",
		Usage: "Shared passphrase file for every keystore file in keystore-dir",
	}
	GenesisValidatorsRootFlag = &cli.StringFlag{
		Name:  "genesis-validators-root",
		Usage: "Genesis validators root, 0x-prefixed 32-byte hex",
	}
	ForkVersionFlag = &cli.StringFlag{
		Name:  "fork-version",
		Usage: "Initial fork version, 0x-prefixed 4-byte hex (overridden by the first beacon head)",
	}
	BlockGasLimitFlag = &cli.Uint64Flag{
		Name:  "block-gas-limit",
		Usage: "Block gas limit fed to the pricing model",
	}
	SigningWorkersFlag = &cli.IntFlag{
		Name:  "signing-workers",
		Usage: "Number of workers in the BLS signing pool",
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML config file; flags override its values",
	}
)

// Flags lists every flag above, for registration on a *cli.App.
var Flags = []cli.Flag{
	ConfigFileFlag,
	RPCListenAddrFlag,
	BeaconNodeURLFlag,
	BeaconAPIURLFlag,
	ExecutionNodeURLFlag,
	ExecutionJWTSecretFlag,
	RelayURLsFlag,
	ProposerAddressesFlag,
	KeystoreDirFlag,
	KeystorePassphraseFileFlag,
	GenesisValidatorsRootFlag,
	ForkVersionFlag,
	BlockGasLimitFlag,
	SigningWorkersFlag,
}

// FromCLIContext builds a Config from ctx: a TOML file if --config is
// set (or Default() otherwise), with every explicitly passed flag
// overriding the corresponding field, mirroring the teacher's
// setPreconfCfg "flag wins over file" precedence.
func FromCLIContext(ctx *cli.Context) (Config, error) {
	var (
		cfg Config
		err error
	)
	if path := ctx.String(ConfigFileFlag.Name); path != "" {
		cfg, err = Load(path)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = Default()
	}

	if ctx.IsSet(RPCListenAddrFlag.Name) {
		cfg.RPCListenAddr = ctx.String(RPCListenAddrFlag.Name)
	}
	if ctx.IsSet(BeaconNodeURLFlag.Name) {
		cfg.BeaconNodeURL = ctx.String(BeaconNodeURLFlag.Name)
	}
	if ctx.IsSet(BeaconAPIURLFlag.Name) {
		cfg.BeaconAPIURL = ctx.String(BeaconAPIURLFlag.Name)
	}
	if ctx.IsSet(ExecutionNodeURLFlag.Name) {
		cfg.ExecutionNodeURL = ctx.String(ExecutionNodeURLFlag.Name)
	}
	if ctx.IsSet(ExecutionJWTSecretFlag.Name) {
		cfg.ExecutionJWTSecret = ctx.String(ExecutionJWTSecretFlag.Name)
	}
	if ctx.IsSet(RelayURLsFlag.Name) {
		cfg.RelayURLs = splitCommaList(ctx.String(RelayURLsFlag.Name))
	}
	if ctx.IsSet(ProposerAddressesFlag.Name) {
		cfg.ProposerAddresses = splitCommaList(ctx.String(ProposerAddressesFlag.Name))
	}
	if ctx.IsSet(KeystoreDirFlag.Name) {
		cfg.KeystoreDir = ctx.String(KeystoreDirFlag.Name)
	}
	if ctx.IsSet(KeystorePassphraseFileFlag.Name) {
		cfg.KeystorePassphraseFile = ctx.String(KeystorePassphraseFileFlag.Name)
	}
	if ctx.IsSet(GenesisValidatorsRootFlag.Name) {
		cfg.GenesisValidatorsRoot = ctx.String(GenesisValidatorsRootFlag.Name)
	}
	if ctx.IsSet(ForkVersionFlag.Name) {
		cfg.ForkVersion = ctx.String(ForkVersionFlag.Name)
	}
	if ctx.IsSet(BlockGasLimitFlag.Name) {
		cfg.BlockGasLimit = ctx.Uint64(BlockGasLimitFlag.Name)
	}
	if ctx.IsSet(SigningWorkersFlag.Name) {
		cfg.SigningWorkers = ctx.Int(SigningWorkersFlag.Name)
	}

	return cfg, nil
}

// splitCommaList splits a comma-separated flag value into trimmed,
// non-empty elements, mirroring the teacher's SplitTagsFlag-style
// comma-list flag parsing (cmd/utils/flags.go).
func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
