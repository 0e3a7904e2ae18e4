// Package node talks to the Kaspa node REST proxy: address activity, UTXOs,
// fee rates, transaction submission and history.
package node

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/metrics"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

const (
	// DefaultChunkSize is how many addresses go into one UTXO or history request.
	DefaultChunkSize = 10

	defaultTimeout = 30 * time.Second

	// maxResponseBody bounds how much of a response is read.
	maxResponseBody int64 = 16 << 20

	// maxParallelChunks bounds concurrent chunk requests.
	maxParallelChunks = 4
)

// LogWriter receives diagnostic output.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimit      float64
	Burst          int
	MaxRetries     int
	ChunkSize      int
	ParallelChunks bool
	HTTPClient     *http.Client
	Logger         LogWriter
	Metrics        *metrics.Metrics
	Retry          *RetryConfig
}

// Client is a NodeClient backed by HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	retry      RetryConfig
	chunkSize  int
	parallel   bool
	logger     LogWriter
	metrics    *metrics.Metrics
}

// NewClient creates a Client.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		limiter:   NewRateLimiter(opts.RateLimit, opts.Burst),
		retry:     DefaultRetryConfig(),
		chunkSize: opts.ChunkSize,
		parallel:  opts.ParallelChunks,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}

	c.httpClient = opts.HTTPClient
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	} else if opts.MaxRetries > 0 {
		c.retry.MaxAttempts = opts.MaxRetries + 1
	}
	if c.chunkSize <= 0 {
		c.chunkSize = DefaultChunkSize
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.metrics == nil {
		c.metrics = metrics.Global
	}
	return c
}

// ActiveAddresses reports activity for every address in one request.
func (c *Client) ActiveAddresses(ctx context.Context, addresses []string) ([]AddressActivity, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var out []AddressActivity
	path := fmt.Sprintf("api/v1/addresses/%s/active", strings.Join(addresses, ","))
	if err := c.get(ctx, metrics.EndpointActive, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UTXOs returns the unspent outputs of all addresses, fetched in chunks.
// The result order follows the address order regardless of whether chunks
// were fetched in parallel.
func (c *Client) UTXOs(ctx context.Context, addresses []string) ([]UTXO, error) {
	chunks, err := fetchChunks(ctx, c, addresses, func(ctx context.Context, chunk []string) ([]rpcUTXO, error) {
		var out []rpcUTXO
		path := fmt.Sprintf("api/v1/addresses/%s/utxos", strings.Join(chunk, ","))
		if err := c.get(ctx, metrics.EndpointUTXOs, path, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var utxos []UTXO
	for _, chunk := range chunks {
		for i := range chunk {
			u, err := chunk[i].decode()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", walleterr.ErrNetworkError, err)
			}
			utxos = append(utxos, u)
		}
	}
	return utxos, nil
}

// FeeRates returns the named fee tiers reported by the node.
func (c *Client) FeeRates(ctx context.Context) ([]FeeRate, error) {
	var out []FeeRate
	if err := c.get(ctx, metrics.EndpointFeeRates, "api/v1/info/feerates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions returns the history of all addresses, fetched in chunks and
// deduplicated by transaction id. The first occurrence fixes an entry's
// position; later occurrences replace its content.
func (c *Client) Transactions(ctx context.Context, addresses []string) ([]LedgerEntry, error) {
	chunks, err := fetchChunks(ctx, c, addresses, func(ctx context.Context, chunk []string) ([]LedgerEntry, error) {
		var out []LedgerEntry
		path := fmt.Sprintf("api/v1/addresses/%s/transactions", strings.Join(chunk, ","))
		if err := c.get(ctx, metrics.EndpointTransactions, path, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var entries []LedgerEntry
	for _, chunk := range chunks {
		for _, entry := range chunk {
			if i, ok := index[entry.TransactionID]; ok {
				entries[i] = entry
				continue
			}
			index[entry.TransactionID] = len(entries)
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Submit broadcasts a signed transaction and returns its id. Submission is
// attempted exactly once; a rejected or empty response yields a
// *SubmissionError.
func (c *Client) Submit(ctx context.Context, tx *kaspa.RPCTransaction) (string, error) {
	body, err := json.Marshal(submitRequest{Transaction: tx})
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}

	if err := c.limiter.Wait(ctx, metrics.EndpointSubmit); err != nil {
		return "", err
	}

	start := time.Now()
	data, err := c.do(ctx, http.MethodPost, "api/v1/transaction/submit", body)
	c.metrics.RecordNodeCall(metrics.EndpointSubmit, time.Since(start), err)

	id, err := parseSubmit(data, err, tx)
	c.metrics.RecordSubmission(err)
	if err != nil {
		c.logger.Error("submit failed: %v", err)
		return "", err
	}
	c.logger.Debug("submitted transaction %s", id)
	return id, nil
}

func parseSubmit(data []byte, err error, tx *kaspa.RPCTransaction) (string, error) {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		// Rejections arrive as 4xx/5xx with an error body.
		data = statusErr.body
	} else if err != nil {
		return "", err
	}

	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return "", &SubmissionError{Reason: "empty response", Transaction: tx}
	}

	var resp submitResponse
	if jerr := json.Unmarshal(data, &resp); jerr != nil {
		return "", &SubmissionError{Reason: "malformed response: " + jerr.Error(), Transaction: tx}
	}
	if resp.Error != "" {
		return "", &SubmissionError{Reason: resp.Error, Transaction: tx}
	}
	if statusErr != nil {
		return "", &SubmissionError{Reason: statusErr.Error(), Transaction: tx}
	}
	if resp.TransactionID == "" {
		return "", &SubmissionError{Reason: "empty response", Transaction: tx}
	}
	return resp.TransactionID, nil
}

// GetJSON performs a GET of path relative to the base URL and decodes the
// JSON body into out. Side services such as the platform fee schedule share
// the node client's limiter, retry policy and metrics this way.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, out any) error {
	return c.get(ctx, endpoint, path, out)
}

// get performs a rate limited, retried GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	_, err := RetryWithConfig(ctx, c.retry, func(attempt int, err error) {
		c.metrics.RecordRetry()
		c.logger.Debug("retrying %s (attempt %d): %v", endpoint, attempt+1, err)
	}, func() (struct{}, error) {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return struct{}{}, err
		}

		start := time.Now()
		data, err := c.do(ctx, http.MethodGet, path, nil)
		c.metrics.RecordNodeCall(endpoint, time.Since(start), err)
		if err != nil {
			return struct{}{}, err
		}

		if err := json.Unmarshal(data, out); err != nil {
			return struct{}{}, fmt.Errorf("%w: decoding %s response: %w", walleterr.ErrNetworkError, endpoint, err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		c.logger.Error("%s request failed: %v", endpoint, err)
	}
	return err
}

// statusError is a non-2xx HTTP response.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

// do executes one HTTP request and classifies failures.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w: %w", walleterr.ErrNetworkError, ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", walleterr.ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", walleterr.ErrNetworkError, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryAfterError{
			err:   fmt.Errorf("%w: %w: %w", walleterr.ErrNetworkError, ErrRateLimited, &statusError{status: resp.StatusCode, body: data}),
			after: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %w: %w", walleterr.ErrNetworkError, ErrRetryable, &statusError{status: resp.StatusCode, body: data})
	default:
		return nil, fmt.Errorf("%w: %w", walleterr.ErrNetworkError, &statusError{status: resp.StatusCode, body: data})
	}
}

// fetchChunks splits addresses into chunks and runs fetch for each,
// returning per-chunk results in chunk order.
func fetchChunks[T any](ctx context.Context, c *Client, addresses []string, fetch func(context.Context, []string) ([]T, error)) ([][]T, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var chunks [][]string
	for i := 0; i < len(addresses); i += c.chunkSize {
		end := min(i+c.chunkSize, len(addresses))
		chunks = append(chunks, addresses[i:end])
	}
	results := make([][]T, len(chunks))

	if !c.parallel {
		for i, chunk := range chunks {
			res, err := fetch(ctx, chunk)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := fetch(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
