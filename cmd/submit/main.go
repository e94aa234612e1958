// Package main provides a one-shot CLI that submits a single transaction,
// waits for its confirmation, and prints the decoded correlation tag.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/cmatc13/ledgerflow/internal/codec"
	"github.com/cmatc13/ledgerflow/internal/journal"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/internal/payload"
	"github.com/cmatc13/ledgerflow/internal/pipeline"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/pkg/config"
	"github.com/cmatc13/ledgerflow/pkg/logging"
)

// Command line flags
var (
	flags      = pflag.NewFlagSet("submit", pflag.ExitOnError)
	configFile = flags.String("config", "", "Path to configuration file")
	privateKey = flags.String("key", "", "Hex-encoded private key (overrides config)")
	recipient  = flags.String("recipient", "", "Recipient identity for a native transfer")
	amount     = flags.Uint64("amount", 0, "Transfer or call amount")
	contract   = flags.String("contract", "", "Contract reference for a contract call")
	entryPoint = flags.String("entry-point", "transfer", "Entry point for a contract call")
	fee        = flags.Uint64("fee", 100_000_000, "Fixed fee attached to the payload")
	tag        = flags.Uint64("tag", 0, "Correlation tag embedded as sr_id")
	timeout    = flags.Duration("timeout", 90*time.Second, "Confirmation timeout")
)

func main() {
	_ = flags.Parse(os.Args[1:])

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := config.DefaultLoadOptions()
	opts.ConfigFile = *configFile
	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	keyHex := cfg.Identity.PrivateKeyHex
	if *privateKey != "" {
		keyHex = *privateKey
	}
	var identity *signing.Identity
	if keyHex != "" {
		identity, err = signing.ImportIdentity(keyHex)
	} else {
		identity, err = signing.NewIdentity()
	}
	if err != nil {
		return err
	}

	target, err := buildTarget()
	if err != nil {
		return err
	}

	tagArg, err := codec.Encode("sr_id", codec.TagBytes(*tag), codec.ByteArray32)
	if err != nil {
		return err
	}
	amountArg, err := codec.Encode("amount", *amount, codec.U64)
	if err != nil {
		return err
	}
	args, err := codec.NewArgs(tagArg, amountArg)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:       logging.LogLevel(cfg.Log.Level),
		Output:      os.Stderr,
		ServiceName: "submit",
		Environment: cfg.Log.Environment,
	})

	client := ledger.NewHTTPClient(cfg.Ledger.Endpoint, cfg.Ledger.RequestTimeout)
	pl, err := pipeline.New(client, pipeline.Config{
		Chain:          cfg.Chain.Name,
		TTL:            cfg.Chain.TTL,
		PollInterval:   cfg.Pipeline.PollInterval,
		DefaultTimeout: cfg.Pipeline.DefaultTimeout,
	},
		pipeline.WithLogger(logger),
		pipeline.WithJournal(journal.NewMemoryJournal()),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	extracted, err := pl.SubmitAndConfirm(ctx, target, payload.FixedFee(*fee), args, identity, *timeout)
	if err != nil {
		return err
	}

	decoded, err := extracted.Decode("sr_id")
	if err != nil {
		return err
	}

	fmt.Printf("executed: address=%s sr_id=%s\n", extracted.Address, decoded.String())
	return nil
}

// buildTarget selects the transfer or contract-call variant from flags
func buildTarget() (payload.TargetDescriptor, error) {
	switch {
	case *contract != "":
		return payload.ContractCall(*contract, *entryPoint), nil
	case *recipient != "":
		return payload.NativeTransfer(*recipient, *amount), nil
	}
	return payload.TargetDescriptor{}, fmt.Errorf("either --recipient or --contract is required")
}
