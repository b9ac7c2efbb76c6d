// Package config loads the ingester configuration from an optional yaml file,
// the environment and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-annotator/internal/utxo/service/ingester"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v2"
)

// Store backends.
const (
	StoreMongo      = "mongo"
	StoreClickhouse = "clickhouse"
	StoreBolt       = "bolt"
	StoreMemory     = "memory"
)

// Config holds the ingester settings. Defaults are assigned in code rather than
// through `default` tags so that values read from the config file survive flag
// parsing.
type Config struct {
	ConfigFile string `long:"config" env:"ANNOTATOR_CONFIG" description:"path to a yaml config file" yaml:"-"`

	Coin    model.Coin    `long:"coin" env:"ANNOTATOR_COIN" description:"coin name" yaml:"coin"`
	Network model.Network `long:"network" env:"ANNOTATOR_NETWORK" description:"network name" yaml:"network"`

	RPCURL      string `long:"rpc-url" env:"ANNOTATOR_RPC_URL" description:"node RPC URL" yaml:"rpc_url"`
	RPCUser     string `long:"rpc-user" env:"ANNOTATOR_RPC_USER" description:"node RPC username" yaml:"rpc_user"`
	RPCPassword string `long:"rpc-password" env:"ANNOTATOR_RPC_PASSWORD" description:"node RPC password" yaml:"rpc_password"`
	RPS         int    `long:"rpc-rps" env:"ANNOTATOR_RPC_RPS" description:"node requests per second, 0 for unlimited" yaml:"rpc_rps"`
	Prefetch    int    `long:"prefetch" env:"ANNOTATOR_PREFETCH" description:"blocks requested ahead of the current height" yaml:"prefetch"`
	Workers     int    `long:"workers" env:"ANNOTATOR_WORKERS" description:"concurrent block downloads" yaml:"workers"`

	Store         string `long:"store" env:"ANNOTATOR_STORE" choice:"mongo" choice:"clickhouse" choice:"bolt" choice:"memory" description:"store backend" yaml:"store"`
	MongoURI      string `long:"mongo-uri" env:"ANNOTATOR_MONGO_URI" description:"MongoDB connection string" yaml:"mongo_uri"`
	MongoDatabase string `long:"mongo-database" env:"ANNOTATOR_MONGO_DATABASE" description:"MongoDB database" yaml:"mongo_database"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"ANNOTATOR_CLICKHOUSE_DSN" description:"ClickHouse DSN" yaml:"clickhouse_dsn"`
	BoltPath      string `long:"bolt-path" env:"ANNOTATOR_BOLT_PATH" description:"bolt database file" yaml:"bolt_path"`

	From            uint64        `long:"from" env:"ANNOTATOR_FROM" description:"first height to ingest" yaml:"from"`
	To              *uint64       `long:"to" env:"ANNOTATOR_TO" description:"last height to ingest, the node tip when unset" yaml:"to"`
	CoinbaseAddress string        `long:"coinbase-address" env:"ANNOTATOR_COINBASE_ADDRESS" choice:"empty" choice:"sentinel" description:"address recorded for coinbase inputs" yaml:"coinbase_address"`
	WriteRetries    int           `long:"write-retries" env:"ANNOTATOR_WRITE_RETRIES" description:"extra attempts for a failed block write" yaml:"write_retries"`
	RetryBackoff    time.Duration `long:"retry-backoff" env:"ANNOTATOR_RETRY_BACKOFF" description:"backoff step between write attempts" yaml:"retry_backoff"`

	MetricsAddr string `long:"metrics-addr" env:"ANNOTATOR_METRICS_ADDR" description:"address for metrics server" yaml:"metrics_addr"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	opts := ingester.DefaultOptions()
	return Config{
		RPCURL:          "http://127.0.0.1:8332",
		Prefetch:        16,
		Workers:         4,
		Store:           StoreMongo,
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "blockinsight7000",
		BoltPath:        "data/annotator.db",
		CoinbaseAddress: string(opts.CoinbaseAddress),
		WriteRetries:    opts.WriteRetries,
		RetryBackoff:    opts.RetryBackoff,
		MetricsAddr:     ":2112",
	}
}

// Load builds the configuration from args (without the program name).
// A *flags.Error of type flags.ErrHelp is returned unchanged.
func Load(args []string) (Config, error) {
	cfg := Default()

	path, err := configFile(args)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if _, err := flags.ParseArgs(&cfg, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configFile finds --config among args before the full parse.
func configFile(args []string) (string, error) {
	var pre struct {
		ConfigFile string `long:"config" env:"ANNOTATOR_CONFIG"`
	}
	parser := flags.NewParser(&pre, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs(args); err != nil {
		return "", fmt.Errorf("parse config flag: %w", err)
	}
	return pre.ConfigFile, nil
}

func (c *Config) readFile(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return fmt.Errorf("in file %q: %w", path, err)
	}
	return nil
}

// Validate reports missing or inconsistent settings.
func (c Config) Validate() error {
	var errs []error
	if c.Coin == "" {
		errs = append(errs, errors.New("coin is required"))
	}
	if c.Network == "" {
		errs = append(errs, errors.New("network is required"))
	}
	if c.To != nil && *c.To < c.From {
		errs = append(errs, fmt.Errorf("to height %d below from height %d", *c.To, c.From))
	}
	if c.WriteRetries < 0 {
		errs = append(errs, fmt.Errorf("write retries must not be negative: %d", c.WriteRetries))
	}
	if _, err := chain.ParseCoinbaseAddressPolicy(c.CoinbaseAddress); err != nil {
		errs = append(errs, err)
	}

	switch c.Store {
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo store needs mongo-uri and mongo-database"))
		}
	case StoreClickhouse:
		if c.ClickhouseDSN == "" {
			errs = append(errs, errors.New("clickhouse store needs clickhouse-dsn"))
		}
	case StoreBolt:
		if c.BoltPath == "" {
			errs = append(errs, errors.New("bolt store needs bolt-path"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported store %q, want one of %s", c.Store,
			strings.Join([]string{StoreMongo, StoreClickhouse, StoreBolt, StoreMemory}, ", ")))
	}
	return errors.Join(errs...)
}

// PipelineOptions returns the pipeline settings.
func (c Config) PipelineOptions() ingester.Options {
	policy, _ := chain.ParseCoinbaseAddressPolicy(c.CoinbaseAddress)
	return ingester.Options{
		CoinbaseAddress: policy,
		WriteRetries:    c.WriteRetries,
		RetryBackoff:    c.RetryBackoff,
	}
}

// SourceOptions returns the block source settings.
func (c Config) SourceOptions() bitcoin.SourceOptions {
	return bitcoin.SourceOptions{Prefetch: c.Prefetch, Workers: c.Workers, RPS: c.RPS}
}

// ReplayRange returns the heights to ingest.
func (c Config) ReplayRange() ingester.ReplayRange {
	return ingester.ReplayRange{From: c.From, To: c.To}
}
