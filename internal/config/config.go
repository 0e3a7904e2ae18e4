// Package config provides configuration management for kaswallet.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version     int               `yaml:"version"`
	Home        string            `yaml:"home"`
	Network     string            `yaml:"network"`
	Node        NodeConfig        `yaml:"node"`
	PlatformFee PlatformFeeConfig `yaml:"platform_fee"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Storage     StorageConfig     `yaml:"storage"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// NodeConfig defines how the wallet reaches the node proxy.
type NodeConfig struct {
	URL            string  `yaml:"url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RateLimit      float64 `yaml:"rate_limit"`
	Burst          int     `yaml:"burst"`
	MaxRetries     int     `yaml:"max_retries"`
}

// PlatformFeeConfig defines the platform fee schedule.
// When ServiceURL is set the schedule is fetched from the service and the
// static values below act as a fallback.
type PlatformFeeConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceURL   string  `yaml:"service_url"`
	Address      string  `yaml:"address"`
	Fee          float64 `yaml:"fee"`
	MinFeeUSD    float64 `yaml:"min_fee_usd"`
	MaxFeeUSD    float64 `yaml:"max_fee_usd"`
	FeeAddition  uint64  `yaml:"fee_addition"`
	PriceUSD     float64 `yaml:"price_usd"`
	CacheSeconds int     `yaml:"cache_seconds"`
}

// DiscoveryConfig tunes the address discovery scan.
type DiscoveryConfig struct {
	GapLimit       int  `yaml:"gap_limit"`
	BatchSize      int  `yaml:"batch_size"`
	BatchSizeMax   int  `yaml:"batch_size_max"`
	ChunkSize      int  `yaml:"chunk_size"`
	ParallelChunks bool `yaml:"parallel_chunks"`
}

// WalletConfig defines wallet behavior.
type WalletConfig struct {
	Keystore      string `yaml:"keystore"`
	Confirmations int    `yaml:"confirmations"`
	TxPerPage     int    `yaml:"tx_per_page"`
}

// StorageConfig selects the persistence backend for wallet metadata.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithDetails(walleterr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrConfigInvalid, "parse config: %s", err.Error())
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default kaswallet home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kaswallet"
	}
	return filepath.Join(home, ".kaswallet")
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks the configuration for values the wallet cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Network {
	case "mainnet", "testnet":
	default:
		problems = append(problems, fmt.Sprintf("unknown network %q", c.Network))
	}

	if u, err := url.Parse(c.Node.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid node url %q", c.Node.URL))
	}

	if c.Discovery.GapLimit < 1 {
		problems = append(problems, "discovery.gap_limit must be at least 1")
	}
	if c.Discovery.BatchSize < 1 || c.Discovery.BatchSizeMax < c.Discovery.BatchSize {
		problems = append(problems, "discovery batch sizes must satisfy 1 <= batch_size <= batch_size_max")
	}
	if c.Discovery.ChunkSize < 1 {
		problems = append(problems, "discovery.chunk_size must be at least 1")
	}

	if c.Wallet.Confirmations < 0 {
		problems = append(problems, "wallet.confirmations must not be negative")
	}
	if c.Wallet.TxPerPage < 1 {
		problems = append(problems, "wallet.tx_per_page must be at least 1")
	}

	switch c.Storage.Backend {
	case StorageFile, StorageBadger:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.PlatformFee.Enabled {
		if c.PlatformFee.ServiceURL == "" && c.PlatformFee.Address == "" {
			problems = append(problems, "platform_fee requires either service_url or address")
		}
		if c.PlatformFee.Fee < 0 || c.PlatformFee.MinFeeUSD < 0 || c.PlatformFee.MaxFeeUSD < 0 {
			problems = append(problems, "platform_fee values must not be negative")
		}
	}

	if len(problems) > 0 {
		return walleterr.Wrap(walleterr.ErrConfigInvalid, "%s", strings.Join(problems, "; "))
	}
	return nil
}

// HomePath returns the expanded home directory.
func (c *Config) HomePath() string {
	return ExpandPath(c.Home)
}

// KeystorePath returns the expanded path of the encrypted seed file.
func (c *Config) KeystorePath() string {
	if c.Wallet.Keystore != "" {
		return ExpandPath(c.Wallet.Keystore)
	}
	return filepath.Join(c.HomePath(), "wallet.age")
}

// LogPath returns the expanded path of the log file. It defaults to
// kaswallet.log in the home directory.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return ExpandPath(c.Logging.File)
	}
	return filepath.Join(c.HomePath(), "kaswallet.log")
}

// StoragePath returns the expanded path of the metadata store.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return ExpandPath(c.Storage.Path)
	}
	if c.Storage.Backend == StorageBadger {
		return filepath.Join(c.HomePath(), "db")
	}
	return filepath.Join(c.HomePath(), "state.json")
}
