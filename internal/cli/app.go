package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mrz1836/kaswallet/internal/cache"
	"github.com/mrz1836/kaswallet/internal/config"
	"github.com/mrz1836/kaswallet/internal/discovery"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/keystore"
	"github.com/mrz1836/kaswallet/internal/metrics"
	"github.com/mrz1836/kaswallet/internal/node"
	"github.com/mrz1836/kaswallet/internal/platformfee"
	"github.com/mrz1836/kaswallet/internal/storage"
	"github.com/mrz1836/kaswallet/internal/wallet"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// app holds the collaborators of one command invocation.
type app struct {
	cfg      *config.Config
	params   *kaspa.Params
	node     *node.Client
	store    storage.Store
	keystore *keystore.Keystore
	wallet   *wallet.Wallet
}

// newApp wires the node client, storage, platform fee source, and wallet
// from the configuration. The wallet is left in the created state.
func newApp(c *config.Config, log *config.Logger) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	params, err := kaspa.ParamsFor(c.Network)
	if err != nil {
		return nil, err
	}

	client := node.NewClient(nodeOptions(c, c.Node.URL, log.With("node")))

	store, err := storage.Open(c)
	if err != nil {
		return nil, fmt.Errorf("opening wallet storage: %w", err)
	}

	w, err := wallet.New(wallet.Options{
		Params:        params,
		Node:          client,
		Store:         store,
		PlatformFee:   platformFeeSource(c, log.With("platformfee")),
		Discovery:     discoveryOptions(c),
		Confirmations: c.Wallet.Confirmations,
		TxPerPage:     c.Wallet.TxPerPage,
		Logger:        log.With("wallet"),
		Metrics:       metrics.Global,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:      c,
		params:   params,
		node:     client,
		store:    store,
		keystore: keystore.New(c.KeystorePath()),
		wallet:   w,
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// open restores the wallet from the stored public key.
func (a *app) open() error {
	raw, ok, err := a.store.Get(storage.KeyPublicKey)
	if err != nil {
		return err
	}
	if !ok {
		return walleterr.WithSuggestion(walleterr.ErrWalletNotFound, "Run 'kaswallet init' or 'kaswallet restore' first")
	}
	var pub wallet.PublicKey
	if err := json.Unmarshal([]byte(raw), &pub); err != nil {
		return walleterr.Wrap(walleterr.ErrInternal, "stored public key is corrupt: %s", err.Error())
	}
	if err := a.wallet.Open(pub); err != nil {
		return err
	}
	if a.wallet.State() == wallet.StateNeedInitialization {
		return walleterr.WithSuggestion(walleterr.ErrNeedInitialization, "Run 'kaswallet restore' to re-derive the account")
	}
	return nil
}

// savePublicKey records the account key so later commands can open the
// wallet without the password.
func (a *app) savePublicKey() error {
	pub, err := a.wallet.PublicKey()
	if err != nil {
		return err
	}
	data, err := json.Marshal(pub)
	if err != nil {
		return err
	}
	if err := a.store.Set(storage.KeyPublicKey, string(data)); err != nil {
		return err
	}
	return a.store.Flush()
}

func nodeOptions(c *config.Config, baseURL string, log node.LogWriter) *node.Options {
	return &node.Options{
		BaseURL:        baseURL,
		Timeout:        time.Duration(c.Node.TimeoutSeconds) * time.Second,
		RateLimit:      c.Node.RateLimit,
		Burst:          c.Node.Burst,
		MaxRetries:     c.Node.MaxRetries,
		ChunkSize:      c.Discovery.ChunkSize,
		ParallelChunks: c.Discovery.ParallelChunks,
		Logger:         log,
		Metrics:        metrics.Global,
	}
}

func discoveryOptions(c *config.Config) *discovery.Options {
	return &discovery.Options{
		GapLimit:     c.Discovery.GapLimit,
		BatchSize:    c.Discovery.BatchSize,
		BatchSizeMax: c.Discovery.BatchSizeMax,
	}
}

// staticSchedule builds the schedule configured in the file.
func staticSchedule(c *config.Config) *platformfee.Schedule {
	pf := c.PlatformFee
	if !pf.Enabled || pf.Address == "" {
		return platformfee.Disabled()
	}
	return platformfee.Static(pf.Address, pf.Fee, pf.MinFeeUSD, pf.MaxFeeUSD, pf.FeeAddition)
}

// platformFeeSource selects where the fee schedule comes from. A configured
// service is preferred and the static schedule backs it up.
func platformFeeSource(c *config.Config, log *config.Logger) platformfee.Source {
	static := staticSchedule(c)
	if !c.PlatformFee.Enabled || c.PlatformFee.ServiceURL == "" {
		return platformfee.StaticSource(static)
	}

	client := node.NewClient(nodeOptions(c, c.PlatformFee.ServiceURL, log))
	svc := platformfee.NewService(client, platformfee.ServiceOptions{
		Key:     c.Network,
		TTL:     time.Duration(c.PlatformFee.CacheSeconds) * time.Second,
		Store:   cache.NewFileStorage[json.RawMessage](filepath.Join(c.HomePath(), "cache", "platformfee.json")),
		Logger:  log,
		Metrics: metrics.Global,
	})
	return platformfee.WithFallback(svc, static, log)
}

// out writes formatted text, ignoring write errors.
func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line, ignoring write errors.
func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
