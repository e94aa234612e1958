// Package config loads ledgerflow configuration from defaults, an optional
// .env file, environment variables, an optional config file, and command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Ledger   LedgerConfig
	Chain    ChainConfig
	Pipeline PipelineConfig
	Identity IdentityConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Admin    AdminConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// LedgerConfig holds remote ledger service configuration
type LedgerConfig struct {
	// Endpoint is the base URL of the remote ledger service
	Endpoint string
	// RequestTimeout bounds a single submit or status request
	RequestTimeout time.Duration
}

// ChainConfig holds target chain configuration
type ChainConfig struct {
	// Name is the chain identifier stamped into every payload
	Name string
	// TTL is the expiry horizon stamped into every payload
	TTL time.Duration
}

// PipelineConfig holds submission pipeline configuration
type PipelineConfig struct {
	// PollInterval is the confirmation poll cadence
	PollInterval time.Duration
	// DefaultTimeout bounds confirmation waits when the caller passes none
	DefaultTimeout time.Duration
}

// IdentityConfig holds the signing identity configuration
type IdentityConfig struct {
	// PrivateKeyHex is the hex-encoded secp256k1 private key
	PrivateKeyHex string
}

// RedisConfig holds Redis-related configuration for the submission journal
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// KafkaConfig holds Kafka-related configuration for the submitter daemon
type KafkaConfig struct {
	Brokers       string
	RequestTopic  string
	ConsumerGroup string
}

// AdminConfig holds the operator-facing admin server configuration
type AdminConfig struct {
	// Addr is the listen address for /healthz, /metrics and /submissions
	Addr string
	// RateLimit is the per-IP request limit per minute
	RateLimit int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string
	Environment string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Namespace string
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an optional path to a config file (yaml, toml, json)
	ConfigFile string
	// EnvFile is an optional path to a .env file
	EnvFile string
	// EnvPrefix is the environment variable prefix
	EnvPrefix string
	// Flags is an optional flag set bound over everything else
	Flags *pflag.FlagSet
}

// DefaultLoadOptions returns the default load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		EnvPrefix: "LEDGERFLOW",
	}
}

// Load loads configuration with the default options
func Load() (*Config, error) {
	return LoadWithOptions(DefaultLoadOptions())
}

// LoadWithOptions loads configuration according to opts
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// .env is optional; ignore a missing file
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if opts.EnvPrefix == "" {
		opts.EnvPrefix = "LEDGERFLOW"
	}
	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := &Config{
		Ledger: LedgerConfig{
			Endpoint:       v.GetString("ledger.endpoint"),
			RequestTimeout: v.GetDuration("ledger.request_timeout"),
		},
		Chain: ChainConfig{
			Name: v.GetString("chain.name"),
			TTL:  v.GetDuration("chain.ttl"),
		},
		Pipeline: PipelineConfig{
			PollInterval:   v.GetDuration("pipeline.poll_interval"),
			DefaultTimeout: v.GetDuration("pipeline.default_timeout"),
		},
		Identity: IdentityConfig{
			PrivateKeyHex: v.GetString("identity.private_key"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers:       v.GetString("kafka.brokers"),
			RequestTopic:  v.GetString("kafka.request_topic"),
			ConsumerGroup: v.GetString("kafka.consumer_group"),
		},
		Admin: AdminConfig{
			Addr:      v.GetString("admin.addr"),
			RateLimit: v.GetInt("admin.rate_limit"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Environment: v.GetString("log.environment"),
		},
		Metrics: MetricsConfig{
			Namespace: v.GetString("metrics.namespace"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Ledger.Endpoint == "" {
		return fmt.Errorf("ledger.endpoint must be set")
	}
	if c.Chain.Name == "" {
		return fmt.Errorf("chain.name must be set")
	}
	if c.Chain.TTL <= 0 {
		return fmt.Errorf("chain.ttl must be positive")
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("pipeline.poll_interval must be positive")
	}
	if c.Pipeline.DefaultTimeout <= 0 {
		return fmt.Errorf("pipeline.default_timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.endpoint", "http://localhost:7777")
	v.SetDefault("ledger.request_timeout", 10*time.Second)
	v.SetDefault("chain.name", "ledgerflow-test")
	v.SetDefault("chain.ttl", 30*time.Minute)
	v.SetDefault("pipeline.poll_interval", 500*time.Millisecond)
	v.SetDefault("pipeline.default_timeout", 60*time.Second)
	v.SetDefault("identity.private_key", "")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.request_topic", "ledgerflow.requests")
	v.SetDefault("kafka.consumer_group", "ledgerflow_submitter_group")
	v.SetDefault("admin.addr", "localhost:9090")
	v.SetDefault("admin.rate_limit", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")
	v.SetDefault("metrics.namespace", "ledgerflow")
}
