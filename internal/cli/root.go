// Package cli implements the kaswallet command-line interface.
//
// Cobra commands share package-level state: the configuration, logger, and
// output formatter are set up in PersistentPreRunE and released in
// PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/kaswallet/internal/config"
	"github.com/mrz1836/kaswallet/internal/metrics"
	"github.com/mrz1836/kaswallet/internal/output"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// BuildInfo describes the running binary. It is set from main via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	// Global flags
	homeDir      string
	outputFormat string
	networkName  string
	verbose      bool

	buildInfo BuildInfo

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

var rootCmd = &cobra.Command{
	Use:   "kaswallet",
	Short: "A single-account Kaspa wallet",
	Long: `kaswallet is a terminal wallet for Kaspa.

It keeps one BIP44 account (m/44'/111111'/0'), discovers used addresses
through a node proxy, estimates network and platform fees, and signs and
submits transactions locally. The mnemonic is stored encrypted with age.

Example:
  kaswallet init
  kaswallet balance
  kaswallet send --to kaspa:qp... --amount 12.5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd.OutOrStdout())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logMetrics()
		cleanup()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kaswallet version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		outln(cmd.OutOrStdout(), "kaswallet "+formatVersion(buildInfo))
		return nil
	},
}

// SetBuildInfo records version metadata for the version command.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return walleterr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
// Results are written to stdout.
func initGlobals(stdout io.Writer) error {
	metrics.Global.Reset()

	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !walleterr.Is(err, walleterr.ErrConfigNotFound) {
			return err
		}
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if networkName != "" {
		cfg.Network = networkName
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.LogPath(), cfg.Logging.Format)
	if err != nil {
		logger = config.NullLogger()
	}

	explicit := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(output.DetectFormat(stdout, explicit), stdout)

	return nil
}

// logMetrics writes the counters collected during the command at debug level.
func logMetrics() {
	if logger.Level() < config.LogLevelDebug {
		return
	}
	m := metrics.Global
	s := m.Snapshot()
	logger.Debug("metrics: node_calls=%d node_errors=%d retries=%d avg_latency_ms=%.1f "+
		"active=%d utxos=%d feerates=%d submits=%d transactions=%d csfee=%d "+
		"discovery_batches=%d submissions_ok=%d submissions_failed=%d "+
		"wallet_ops=%d wallet_errors=%d cache_hit_rate=%.0f%%",
		s.NodeCallsTotal, s.NodeErrorsTotal, s.NodeRetries, m.NodeLatencyAvgMs(),
		s.ActiveCalls, s.UTXOCalls, s.FeeRateCalls, s.SubmitCalls, s.TransactionCalls, s.PlatformFeeCalls,
		s.DiscoveryBatches, s.SubmissionsOK, s.SubmissionsFailed,
		s.WalletOpsTotal, s.WalletOpsErrors, m.CacheHitRate())
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "kaswallet data directory (default: ~/.kaswallet)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "", "network: mainnet, testnet (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}
