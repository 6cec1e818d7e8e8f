package config

import (
	"flag"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"
)

func newFlagSet(flags []cli.Flag, args []string) *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		if err := f.Apply(fs); err != nil {
			panic(fmt.Sprintf("apply flag: %v", err))
		}
	}
	if err := fs.Parse(args); err != nil {
		panic(fmt.Sprintf("parse flags: %v", err))
	}
	return fs
}

func TestFromCLIContextAppliesFlagsOverDefault(t *testing.T) {
	app := cli.NewApp()
	app.Flags = Flags

	args := []string{
		"--rpc-listen-addr", "127.0.0.1:9100",
		"--relay-urls", "https://a.example, https://b.example",
		"--signing-workers", "2",
	}
	ctx := cli.NewContext(app, newFlagSet(app.Flags, args), nil)

	cfg, err := FromCLIContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RPCListenAddr != "127.0.0.1:9100" {
		t.Fatalf("unexpected rpc listen addr: %s", cfg.RPCListenAddr)
	}
	if len(cfg.RelayURLs) != 2 || cfg.RelayURLs[0] != "https://a.example" || cfg.RelayURLs[1] != "https://b.example" {
		t.Fatalf("unexpected relay urls: %v", cfg.RelayURLs)
	}
	if cfg.SigningWorkers != 2 {
		t.Fatalf("unexpected signing workers: %d", cfg.SigningWorkers)
	}
	// Fields never passed on the command line keep their Default() value.
	if cfg.BeaconNodeURL != Default().BeaconNodeURL {
		t.Fatalf("expected default beacon node url to survive, got %s", cfg.BeaconNodeURL)
	}
}

func TestFromCLIContextWithNoFlagsReturnsDefault(t *testing.T) {
	app := cli.NewApp()
	app.Flags = Flags
	ctx := cli.NewContext(app, newFlagSet(app.Flags, nil), nil)

	cfg, err := FromCLIContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.RPCListenAddr != def.RPCListenAddr || cfg.BeaconNodeURL != def.BeaconNodeURL ||
		cfg.ExecutionNodeURL != def.ExecutionNodeURL || cfg.Version != def.Version {
		t.Fatalf("expected Default(), got %+v", cfg)
	}
	if len(cfg.RelayURLs) != 0 || len(cfg.ProposerAddresses) != 0 {
		t.Fatalf("expected no relay/proposer entries, got %+v", cfg)
	}
}

func TestSplitCommaListTrimsAndDropsEmpty(t *testing.T) {
	got := splitCommaList(" a ,, b ,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
