// Package config loads indexer settings from YAML, the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sui-amm-indexer/internal/sui"
)

type Config struct {
	Sui        SuiConfig        `yaml:"sui"`
	Storage    StorageConfig    `yaml:"storage"`
	Subscriber SubscriberConfig `yaml:"subscriber"`
	Bus        BusConfig        `yaml:"bus"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Chart      ChartConfig      `yaml:"chart"`
	Dedupe     DedupeConfig     `yaml:"dedupe"`
	Archive    ArchiveConfig    `yaml:"archive"`
	PubSub     PubSubConfig     `yaml:"pubsub"`
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SuiConfig struct {
	Network   string `yaml:"network"` // mainnet|testnet|devnet|localnet
	RPCURL    string `yaml:"rpc_url"`
	WSURL     string `yaml:"ws_url"`
	PackageID string `yaml:"package_id"`
	ConfigID  string `yaml:"config_id"` // logged only

	RPCTimeout    time.Duration `yaml:"rpc_timeout"`
	RPCMaxRetries int           `yaml:"rpc_max_retries"`
	CoinCacheSize int           `yaml:"coin_cache_size"`
}

type StorageConfig struct {
	UseMemory     bool   `yaml:"use_memory"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type SubscriberConfig struct {
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type BusConfig struct {
	Capacity int `yaml:"capacity"`
}

type DispatcherConfig struct {
	StoreTimeout time.Duration `yaml:"store_timeout"` // 0 = none
	Workers      int           `yaml:"workers"`
}

type ChartConfig struct {
	CarryDayRollover bool `yaml:"carry_day_rollover"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type DedupeConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"` // memory|redis
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

type ClickHouseWriterConfig struct {
	BatchMaxRows     int           `yaml:"batch_max_rows"`
	BatchMaxInterval time.Duration `yaml:"batch_max_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	Buffer           int           `yaml:"buffer"`
}

type ArchiveConfig struct {
	ClickHouseDSN string                 `yaml:"clickhouse_dsn"` // empty disables the archive
	Writer        ClickHouseWriterConfig `yaml:"writer"`
}

type NATSConfig struct {
	URL           string `yaml:"url"` // empty disables publishing
	SubjectPrefix string `yaml:"subject_prefix"`
}

type PubSubConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"` // empty disables the listener
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

// Default returns the settings used for anything the file leaves out.
func Default() *Config {
	return &Config{
		Sui: SuiConfig{
			RPCTimeout:    30 * time.Second,
			RPCMaxRetries: 3,
			CoinCacheSize: 10000,
		},
		Storage: StorageConfig{RunMigrations: true},
		Subscriber: SubscriberConfig{
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Bus:        BusConfig{Capacity: 100000},
		Dispatcher: DispatcherConfig{Workers: 1},
		Dedupe: DedupeConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
			Redis:   RedisConfig{Prefix: "sui-amm-indexer:dedupe:"},
		},
		Archive: ArchiveConfig{
			Writer: ClickHouseWriterConfig{
				BatchMaxRows:     1000,
				BatchMaxInterval: 200 * time.Millisecond,
				MaxRetries:       3,
				RetryBackoff:     200 * time.Millisecond,
				Buffer:           8192,
			},
		},
		PubSub: PubSubConfig{NATS: NATSConfig{SubjectPrefix: "amm"}},
		HTTP: HTTPConfig{
			Addr:            ":9090",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("SUI_RPC"); ok && v != "" {
		// a network name selects its default endpoints
		if _, known := sui.LookupNetwork(v); known {
			c.Sui.Network = v
			c.Sui.RPCURL = ""
		} else {
			c.Sui.RPCURL = v
		}
	}
	set("SUI_WS", &c.Sui.WSURL)
	set("AMM_PACKAGE_ID", &c.Sui.PackageID)
	set("AMM_CONFIG_ID", &c.Sui.ConfigID)
	set("DB_URL", &c.Storage.PostgresDSN)
	set("CLICKHOUSE_DSN", &c.Archive.ClickHouseDSN)
	set("REDIS_ADDR", &c.Dedupe.Redis.Addr)
	set("NATS_URL", &c.PubSub.NATS.URL)
	set("LOG_LEVEL", &c.Logging.Level)
}

// Normalize expands the network alias into any endpoint left empty.
func (c *Config) Normalize() {
	if c.Sui.Network == "" {
		return
	}
	ep, ok := sui.LookupNetwork(c.Sui.Network)
	if !ok {
		return
	}
	if c.Sui.RPCURL == "" {
		c.Sui.RPCURL = ep.RPC
	}
	if c.Sui.WSURL == "" {
		c.Sui.WSURL = ep.WS
	}
}

// Validate checks that every required setting is present and consistent.
func (c *Config) Validate() error {
	var errs []error

	if c.Sui.Network != "" {
		if _, ok := sui.LookupNetwork(c.Sui.Network); !ok {
			errs = append(errs, fmt.Errorf("sui.network: unknown network %q", c.Sui.Network))
		}
	}
	if c.Sui.RPCURL == "" {
		errs = append(errs, errors.New("sui.rpc_url is required (or SUI_RPC / sui.network)"))
	}
	if c.Sui.WSURL == "" {
		errs = append(errs, errors.New("sui.ws_url is required (or SUI_WS / sui.network)"))
	}
	if c.Sui.PackageID == "" {
		errs = append(errs, errors.New("sui.package_id is required (or AMM_PACKAGE_ID)"))
	}
	if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required unless storage.use_memory is set"))
	}
	if c.Dispatcher.Workers < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.workers must be >= 1, got %d", c.Dispatcher.Workers))
	}
	if c.Dispatcher.StoreTimeout < 0 {
		errs = append(errs, errors.New("dispatcher.store_timeout must not be negative"))
	}
	if c.Bus.Capacity < 1 {
		errs = append(errs, fmt.Errorf("bus.capacity must be >= 1, got %d", c.Bus.Capacity))
	}
	if c.Subscriber.InitialBackoff <= 0 || c.Subscriber.MaxBackoff < c.Subscriber.InitialBackoff {
		errs = append(errs, errors.New("subscriber backoff must satisfy 0 < initial_backoff <= max_backoff"))
	}
	if c.Dedupe.Enabled {
		switch c.Dedupe.Backend {
		case "memory":
		case "redis":
			if c.Dedupe.Redis.Addr == "" {
				errs = append(errs, errors.New("dedupe.redis.addr is required for the redis backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("dedupe.backend: unknown backend %q", c.Dedupe.Backend))
		}
		if c.Dedupe.TTL <= 0 {
			errs = append(errs, errors.New("dedupe.ttl must be positive"))
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Flags holds command-line overrides. Only flags set on the command line
// are applied.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath  string
	network     string
	rpcURL      string
	wsURL       string
	packageID   string
	postgresDSN string
	useMemory   bool
	httpAddr    string
	logLevel    string
	workers     int
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&f.network, "network", "", "Sui network alias: mainnet, testnet, devnet, localnet")
	fs.StringVar(&f.rpcURL, "rpc-endpoint", "", "Sui fullnode JSON-RPC endpoint")
	fs.StringVar(&f.wsURL, "ws-endpoint", "", "Sui fullnode WebSocket endpoint")
	fs.StringVar(&f.packageID, "package-id", "", "AMM package id to subscribe to")
	fs.StringVar(&f.postgresDSN, "postgres-dsn", "", "PostgreSQL connection string")
	fs.BoolVar(&f.useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL")
	fs.StringVar(&f.httpAddr, "http-addr", "", "HTTP address for the read API and metrics (empty keeps config)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.IntVar(&f.workers, "workers", 0, "Dispatcher workers (1 = sequential)")
	return f
}

// Apply copies every explicitly set flag into c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "network":
			c.Sui.Network = f.network
		case "rpc-endpoint":
			c.Sui.RPCURL = f.rpcURL
		case "ws-endpoint":
			c.Sui.WSURL = f.wsURL
		case "package-id":
			c.Sui.PackageID = f.packageID
		case "postgres-dsn":
			c.Storage.PostgresDSN = f.postgresDSN
		case "use-memory":
			c.Storage.UseMemory = f.useMemory
		case "http-addr":
			c.HTTP.Addr = f.httpAddr
		case "log-level":
			c.Logging.Level = f.logLevel
		case "workers":
			c.Dispatcher.Workers = f.workers
		}
	})
}
