package wallet

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/mrz1836/kaswallet/internal/discovery"
	"github.com/mrz1836/kaswallet/internal/fee"
	"github.com/mrz1836/kaswallet/internal/hdwallet"
	"github.com/mrz1836/kaswallet/internal/history"
	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/ledger"
	"github.com/mrz1836/kaswallet/internal/metrics"
	"github.com/mrz1836/kaswallet/internal/platformfee"
	"github.com/mrz1836/kaswallet/internal/storage"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Options configures a Wallet.
type Options struct {
	Params *kaspa.Params
	// Path is the BIP44 account path. Defaults to hdwallet.DefaultPath.
	Path  string
	Node  Node
	Store storage.Store
	// PlatformFee supplies the fee schedule. Nil disables the platform fee.
	PlatformFee   platformfee.Source
	Discovery     *discovery.Options
	Confirmations int
	TxPerPage     int
	Logger        Logger
	Metrics       *metrics.Metrics
}

// Wallet is a single-account wallet. Every method is safe for concurrent
// use; operations are serialized.
type Wallet struct {
	mu sync.Mutex

	params     *kaspa.Params
	path       string
	node       Node
	store      storage.Store
	platform   platformfee.Source
	discovery  *discovery.Options
	rates      *fee.RateCache
	reconciler *history.Reconciler
	txPerPage  int
	logger     Logger
	metrics    *metrics.Metrics

	state   State
	account *hdwallet.Account
	ledger  *ledger.Ledger
	balance uint64
	history []history.Record
}

// New creates a wallet in the created state.
func New(opts Options) (*Wallet, error) {
	if opts.Params == nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidInput, "network parameters are required")
	}
	if opts.Node == nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidInput, "node client is required")
	}
	if opts.Discovery == nil {
		opts.Discovery = discovery.DefaultOptions()
	}
	if err := opts.Discovery.Validate(); err != nil {
		return nil, err
	}

	w := &Wallet{
		params:     opts.Params,
		path:       opts.Path,
		node:       opts.Node,
		store:      opts.Store,
		platform:   opts.PlatformFee,
		discovery:  opts.Discovery,
		rates:      fee.NewRateCache(opts.Node),
		reconciler: history.NewReconciler(opts.Params, opts.Confirmations),
		txPerPage:  opts.TxPerPage,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		state:      StateCreated,
		ledger:     ledger.Empty(),
	}
	if w.path == "" {
		w.path = hdwallet.DefaultPath
	}
	if w.store == nil {
		w.store = storage.NewMemory()
	}
	if w.platform == nil {
		w.platform = platformfee.StaticSource(nil)
	}
	if w.txPerPage <= 0 {
		w.txPerPage = DefaultTxPerPage
	}
	if w.logger == nil {
		w.logger = nopLogger{}
	}
	if w.metrics == nil {
		w.metrics = metrics.Global
	}
	return w, nil
}

// State returns the lifecycle state.
func (w *Wallet) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Create derives the account from a BIP39 seed. Only the public account
// key is kept.
func (w *Wallet) Create(seed []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = StateInitializing
	signer, err := hdwallet.NewSigner(seed, w.params, w.path)
	if err != nil {
		w.state = StateError
		return err
	}
	defer signer.Zero()

	account, err := signer.Account(w.path)
	if err != nil {
		w.state = StateError
		return err
	}
	return w.init(account)
}

// Open restores the account from an exported public key. A key exported at
// a different path leaves the wallet in StateNeedInitialization without
// error; the caller must Create it from the seed again.
func (w *Wallet) Open(pub PublicKey) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = StateInitializing
	if pub.Path != w.path {
		w.logger.Debug("public key path %q does not match %q", pub.Path, w.path)
		w.state = StateNeedInitialization
		return nil
	}

	account, err := hdwallet.ParseAccount(pub.Key, w.params, pub.Path)
	if err != nil {
		w.state = StateError
		return walleterr.Wrap(walleterr.ErrInvalidPublicKey, "%v", err)
	}
	return w.init(account)
}

// init installs the account and the cached balance.
func (w *Wallet) init(account *hdwallet.Account) error {
	cached, ok, err := w.store.Get(storage.KeyBalance)
	if err != nil {
		w.state = StateError
		return err
	}

	var balance uint64
	if ok && cached != "" {
		balance, err = strconv.ParseUint(cached, 10, 64)
		if err != nil {
			w.logger.Error("ignoring unreadable cached balance %q", cached)
			balance = 0
		}
	}

	w.account = account
	w.ledger = ledger.Empty()
	w.balance = balance
	w.history = nil
	w.state = StateInitialized
	return nil
}

// Load runs discovery and replaces the ledger. On failure the wallet moves
// to StateError and keeps its previous ledger.
func (w *Wallet) Load(ctx context.Context) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() { w.metrics.RecordWalletOp(err) }()

	if err := w.requireAccount(); err != nil {
		return err
	}

	w.state = StateLoading
	engine := discovery.NewEngine(w.node, w.account, w.discovery, w.logger, w.metrics)
	res, err := engine.Discover(ctx)
	if err != nil {
		w.state = StateError
		return err
	}

	next, err := ledger.ReplaceAll(res.Book, res.UTXOs)
	if err != nil {
		w.state = StateError
		return err
	}
	if err := w.persist(next.Balance()); err != nil {
		w.state = StateError
		return err
	}

	w.ledger = next
	w.balance = next.Balance()
	w.history = nil
	w.state = StateLoaded
	w.logger.Debug("loaded %d utxos over %d addresses in %s", next.Len(), res.AddressesScanned, res.Duration)
	return nil
}

// persist writes the balance snapshot.
func (w *Wallet) persist(balance uint64) error {
	if err := w.store.Set(storage.KeyBalance, strconv.FormatUint(balance, 10)); err != nil {
		return err
	}
	return w.store.Flush()
}

func (w *Wallet) requireAccount() error {
	switch {
	case w.state == StateNeedInitialization:
		return walleterr.ErrNeedInitialization
	case w.account == nil:
		return walleterr.ErrNotLoaded
	}
	return nil
}

func (w *Wallet) requireLoaded() error {
	if err := w.requireAccount(); err != nil {
		return err
	}
	if w.state != StateLoaded {
		return walleterr.ErrNotLoaded
	}
	return nil
}

// Balance returns the ledger balance once loaded and the cached snapshot
// before that.
func (w *Wallet) Balance() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// UTXOs returns the live UTXO set.
func (w *Wallet) UTXOs() []ledger.UTXO {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.UTXOs()
}

// PublicKey exports the account key.
func (w *Wallet) PublicKey() (PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireAccount(); err != nil {
		return PublicKey{}, err
	}
	return PublicKey{Key: w.account.PublicExtendedKey(), Path: w.account.Path()}, nil
}

// Address returns the next unused receive address.
func (w *Wallet) Address() (string, error) {
	return w.nextAddress(hdwallet.Receive)
}

// ChangeAddress returns the next unused change address.
func (w *Wallet) ChangeAddress() (string, error) {
	return w.nextAddress(hdwallet.Change)
}

func (w *Wallet) nextAddress(branch hdwallet.Branch) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireAccount(); err != nil {
		return "", err
	}
	return w.account.Address(w.ledger.Book().Next(branch))
}

// ValidateAddress checks that address decodes for this network.
func (w *Wallet) ValidateAddress(address string) error {
	if _, err := kaspa.DecodeAddress(address, w.params.AddressPrefix); err != nil {
		return walleterr.InvalidAddress(address, err)
	}
	return nil
}

// ExportPrivateKeys returns the key of every address holding a UTXO, once
// per address, in UTXO order.
func (w *Wallet) ExportPrivateKeys(seed []byte) ([]PrivateKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.requireLoaded(); err != nil {
		return nil, err
	}

	signer, err := w.signer(seed)
	if err != nil {
		return nil, err
	}
	defer signer.Zero()

	seen := make(map[string]bool)
	keys := make([]PrivateKey, 0)
	for _, u := range w.ledger.UTXOs() {
		if seen[u.Address] {
			continue
		}
		seen[u.Address] = true

		priv, err := signer.PrivateKey(u.Derivation)
		if err != nil {
			return nil, err
		}
		keys = append(keys, PrivateKey{Address: u.Address, PrivateKey: hex.EncodeToString(priv.Serialize())})
		priv.Zero()
	}
	return keys, nil
}

// signer derives the private account key and checks it belongs to this
// wallet. The caller must Zero it.
func (w *Wallet) signer(seed []byte) (*hdwallet.Signer, error) {
	signer, err := hdwallet.NewSigner(seed, w.params, w.path)
	if err != nil {
		return nil, err
	}
	account, err := signer.Account(w.path)
	if err != nil {
		signer.Zero()
		return nil, err
	}
	if account.PublicExtendedKey() != w.account.PublicExtendedKey() {
		signer.Zero()
		return nil, walleterr.WithSuggestion(
			walleterr.Wrap(walleterr.ErrInvalidMnemonic, "seed does not belong to this wallet"),
			"Check the mnemonic and passphrase",
		)
	}
	return signer, nil
}
