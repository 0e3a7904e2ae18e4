package config

// Storage backends.
const (
	StorageFile   = "file"
	StorageBadger = "badger"
)

// DefaultNodeURL is the node proxy the wallet talks to when none is configured.
const DefaultNodeURL = "http://127.0.0.1:8000"

// Reference platform fee schedule.
const (
	DefaultPlatformFeeAddress = "kaspa:qpyu9ndr2yxs7l9rfzlfe826me23y2ahew5eeum0xtys5809u273kpgjmd3s3"
	DefaultPlatformFeeRate    = 0.005
	DefaultPlatformMinFeeUSD  = 0.3
	DefaultPlatformMaxFeeUSD  = 100
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.kaswallet",
		Network: "mainnet",
		Node: NodeConfig{
			URL:            DefaultNodeURL,
			TimeoutSeconds: 30,
			RateLimit:      10,
			Burst:          5,
			MaxRetries:     3,
		},
		PlatformFee: PlatformFeeConfig{
			Enabled:      false,
			Address:      DefaultPlatformFeeAddress,
			Fee:          DefaultPlatformFeeRate,
			MinFeeUSD:    DefaultPlatformMinFeeUSD,
			MaxFeeUSD:    DefaultPlatformMaxFeeUSD,
			CacheSeconds: 600,
		},
		Discovery: DiscoveryConfig{
			GapLimit:     1,
			BatchSize:    3,
			BatchSizeMax: 10,
			ChunkSize:    10,
		},
		Wallet: WalletConfig{
			Confirmations: 10,
			TxPerPage:     10,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
		},
		Logging: LoggingConfig{
			Level:  "error",
			Format: "json",
		},
	}
}
