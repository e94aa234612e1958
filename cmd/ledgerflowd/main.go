// Package main provides the entry point for the ledgerflow submitter daemon.
// It initializes and coordinates all services using the service registry pattern.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cmatc13/ledgerflow/internal/events"
	"github.com/cmatc13/ledgerflow/internal/journal"
	"github.com/cmatc13/ledgerflow/internal/ledger"
	"github.com/cmatc13/ledgerflow/internal/pipeline"
	"github.com/cmatc13/ledgerflow/internal/signing"
	"github.com/cmatc13/ledgerflow/internal/submitter"
	"github.com/cmatc13/ledgerflow/pkg/config"
	"github.com/cmatc13/ledgerflow/pkg/logging"
	"github.com/cmatc13/ledgerflow/pkg/metrics"
	"github.com/cmatc13/ledgerflow/pkg/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerflowd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("ledgerflowd", pflag.ContinueOnError)
	configFile := flags.String("config", "", "Path to configuration file")
	envFile := flags.String("env-file", "", "Path to .env file")
	logLevel := flags.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	opts := config.DefaultLoadOptions()
	opts.ConfigFile = *configFile
	opts.EnvFile = *envFile

	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := logging.New(logging.Config{
		Level:       logging.LogLevel(cfg.Log.Level),
		Output:      os.Stdout,
		ServiceName: "ledgerflowd",
		Environment: cfg.Log.Environment,
	})

	if cfg.Identity.PrivateKeyHex == "" {
		return fmt.Errorf("identity.private_key must be set for the daemon")
	}
	identity, err := signing.ImportIdentity(cfg.Identity.PrivateKeyHex)
	if err != nil {
		return fmt.Errorf("failed to load signing identity: %w", err)
	}
	logger.Info("Signing identity loaded", "identity", identity.Address)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One journal per process; Redis when configured, in-memory otherwise
	var jnl journal.Journal
	if cfg.Redis.Address != "" {
		redisJournal, err := journal.NewRedisJournal(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to initialize journal: %w", err)
		}
		jnl = redisJournal
	} else {
		logger.Warn("No Redis configured, journaling submissions in memory only")
		jnl = journal.NewMemoryJournal()
	}
	defer jnl.Close()

	m := metrics.New(metrics.Config{
		Namespace: cfg.Metrics.Namespace,
		Subsystem: "pipeline",
	})

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithJournal(jnl),
		pipeline.WithMetrics(m),
	}
	if cfg.Kafka.Brokers != "" {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize outcome publisher: %w", err)
		}
		defer publisher.Close()
		pipelineOpts = append(pipelineOpts, pipeline.WithPublisher(publisher))
	}

	ledgerClient := ledger.NewHTTPClient(cfg.Ledger.Endpoint, cfg.Ledger.RequestTimeout)
	pl, err := pipeline.New(ledgerClient, pipeline.Config{
		Chain:          cfg.Chain.Name,
		TTL:            cfg.Chain.TTL,
		PollInterval:   cfg.Pipeline.PollInterval,
		DefaultTimeout: cfg.Pipeline.DefaultTimeout,
	}, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	registry := service.NewRegistry(logger)

	submitterService, err := submitter.New(cfg, pl, identity, jnl, m, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize submitter: %w", err)
	}
	if err := registry.Register(submitterService); err != nil {
		return fmt.Errorf("failed to register submitter: %w", err)
	}

	logger.Info("Starting all services")
	if err := registry.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	logger.Info("All services started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("Shutting down gracefully")
	cancel()

	if err := registry.StopAll(context.Background()); err != nil {
		logger.WithError(err).Error("Error during shutdown")
	}

	logger.Info("Shutdown complete")
	return nil
}
