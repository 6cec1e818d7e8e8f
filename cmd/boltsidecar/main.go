// Command boltsidecar runs the inclusion-preconfirmation sidecar: it
// authenticates bolt_requestInclusion calls from a proposer, validates
// and admits transactions against cached execution-layer state, signs
// the resulting constraints with the delegatee BLS keys it holds, and
// forwards them to the configured relays.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/bolt-protocol/bolt-sidecar/chain"
	"github.com/bolt-protocol/bolt-sidecar/config"
	"github.com/bolt-protocol/bolt-sidecar/constraints"
	"github.com/bolt-protocol/bolt-sidecar/delegation/keystore"
	"github.com/bolt-protocol/bolt-sidecar/internal/xlog"
	"github.com/bolt-protocol/bolt-sidecar/pricing"
	"github.com/bolt-protocol/bolt-sidecar/relay"
	"github.com/bolt-protocol/bolt-sidecar/rpc"
	"github.com/bolt-protocol/bolt-sidecar/signing"
	"github.com/bolt-protocol/bolt-sidecar/statecache"
	"github.com/bolt-protocol/bolt-sidecar/validation"
	"github.com/bolt-protocol/bolt-sidecar/workerpool"
)

func main() {
	app := cli.NewApp()
	app.Name = "boltsidecar"
	app.Usage = "proposer-side inclusion preconfirmation sidecar"
	app.Flags = config.Flags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		xlog.Error("boltsidecar exited with an error", "err", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.FromCLIContext(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	proposers, err := cfg.ProposerAddressList()
	if err != nil {
		return err
	}
	genesisRoot, err := cfg.GenesisValidatorsRootHash()
	if err != nil {
		return err
	}
	initialFork, err := cfg.InitialForkVersionBytes()
	if err != nil {
		return err
	}

	var jwtAuth *chain.JWTAuth
	if cfg.ExecutionJWTSecret != "" {
		jwtAuth, err = chain.LoadJWTSecret(cfg.ExecutionJWTSecret)
		if err != nil {
			return fmt.Errorf("boltsidecar: execution jwt: %w", err)
		}
	}
	execClient := chain.NewExecutionClient(cfg.ExecutionNodeURL, jwtAuth)
	cache := statecache.New(execClient.AccountState)

	pricingModel := pricing.NewModel(cfg.BlockGasLimit)
	validator := validation.New(pricingModel, cfg.BlockGasLimit)

	var resolver keystore.PassphraseResolver
	if cfg.KeystorePassphraseFile != "" {
		passphrase, err := os.ReadFile(cfg.KeystorePassphraseFile)
		if err != nil {
			return fmt.Errorf("boltsidecar: read keystore passphrase file: %w", err)
		}
		resolver = keystore.SharedPassphrase(string(passphrase))
	} else {
		resolver = keystore.PerPubkeyDir(cfg.KeystoreDir)
	}
	decrypted, err := keystore.Load(cfg.KeystoreDir, resolver)
	if err != nil {
		return fmt.Errorf("boltsidecar: load keystore: %w", err)
	}
	if len(decrypted) == 0 {
		return fmt.Errorf("boltsidecar: keystore_dir %s has no usable keys", cfg.KeystoreDir)
	}

	pool := workerpool.New(cfg.SigningWorkers)
	defer pool.Close()

	sinks := make(relay.FanOut, len(cfg.RelayURLs))
	for i, url := range cfg.RelayURLs {
		sinks[i] = relay.New(url)
	}

	forkVersion := newForkVersionHolder(initialFork)
	domain := func() signing.Domain {
		return signing.ComputeDomain(signing.ForkVersion(forkVersion.Get()), genesisRoot)
	}

	engines := make(map[[48]byte]*constraints.Engine, len(decrypted))
	for _, d := range decrypted {
		sk, err := signing.SecretKeyFromBytes(d.Secret)
		if err != nil {
			return fmt.Errorf("boltsidecar: keystore entry %s: %w", d.Path, err)
		}
		signer := rpc.NewSlotSigner(pool, sk)
		engines[signer.PublicKey()] = constraints.New(signer, sinks, domain)
		xlog.Info("loaded delegatee key", "pubkey", d.Pubkey, "path", d.Path)
	}

	duties := chain.NewDutiesClient(cfg.BeaconAPIURL)
	dutyLookup := func(slot uint64) ([48]byte, error) {
		return duties.ProposerPubkey(context.Background(), slot)
	}

	server := rpc.New(cfg.Version, validator, cache, engines, dutyLookup, proposers)

	beacon := chain.NewBeaconClient(cfg.BeaconNodeURL)
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heads, err := beacon.Subscribe(runCtx)
	if err != nil {
		return fmt.Errorf("boltsidecar: subscribe to beacon head events: %w", err)
	}
	go func() {
		for head := range heads {
			forkVersion.Set(head.ForkVersion)
			server.AdvanceSlot(head.Slot)
			cache.InvalidateAll()
			xlog.Info("advanced to new head", "slot", head.Slot, "block_hash", head.BlockHash.String())
		}
	}()

	xlog.Info("boltsidecar listening", "addr", cfg.RPCListenAddr, "relays", len(sinks), "keys", len(engines))
	return http.ListenAndServe(cfg.RPCListenAddr, server.Handler())
}

// forkVersionHolder guards the current fork version, updated from the
// beacon head subscription goroutine and read from every signing
// request's domain closure.
type forkVersionHolder struct {
	mu sync.Mutex
	v  [4]byte
}

func newForkVersionHolder(initial [4]byte) *forkVersionHolder {
	return &forkVersionHolder{v: initial}
}

func (h *forkVersionHolder) Get() [4]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.v
}

func (h *forkVersionHolder) Set(v [4]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.v = v
}
