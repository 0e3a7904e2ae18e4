package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	"github.com/mrz1836/kaswallet/internal/metrics"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

const testScript = "20" + "1111111111111111111111111111111111111111111111111111111111111111" + "ac"

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := &metrics.Metrics{}
	opts := &Options{BaseURL: srv.URL + "/", Metrics: m, Retry: fastRetry()}
	for _, fn := range mutate {
		fn(opts)
	}
	return NewClient(opts), m
}

func addressesFromPath(t *testing.T, path, suffix string) []string {
	t.Helper()
	trimmed := strings.TrimPrefix(path, "/api/v1/addresses/")
	trimmed = strings.TrimSuffix(trimmed, "/"+suffix)
	return strings.Split(trimmed, ",")
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_ActiveAddresses(t *testing.T) {
	t.Parallel()

	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/active"))
		addrs := addressesFromPath(t, r.URL.Path, "active")
		out := make([]map[string]any, 0, len(addrs))
		for _, a := range addrs {
			out = append(out, map[string]any{"address": a, "active": a == "kaspa:b", "lastTxBlockTime": 1762935671753})
		}
		writeJSON(t, w, out)
	})

	res, err := client.ActiveAddresses(context.Background(), []string{"kaspa:a", "kaspa:b", "kaspa:c"})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.False(t, res[0].Active)
	assert.True(t, res[1].Active)
	assert.Equal(t, "kaspa:b", res[1].Address)
	require.NotNil(t, res[1].LastTxBlockTime)
	assert.Equal(t, int64(1762935671753), *res[1].LastTxBlockTime)
	assert.Equal(t, int64(1), m.Snapshot().ActiveCalls)

	empty, err := client.ActiveAddresses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int64(1), m.Snapshot().ActiveCalls)
}

func utxoHandler(t *testing.T, calls *atomic.Int64, delay func(first string) time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		addrs := addressesFromPath(t, r.URL.Path, "utxos")
		if delay != nil {
			time.Sleep(delay(addrs[0]))
		}
		out := make([]map[string]any, 0, len(addrs))
		for i, a := range addrs {
			var daa any = "1234"
			if i%2 == 1 {
				daa = 5678
			}
			out = append(out, map[string]any{
				"address": a,
				"outpoint": map[string]any{
					"transactionId": fmt.Sprintf("%064x", i+1),
					"index":         i,
				},
				"utxoEntry": map[string]any{
					"amount":          "100000000",
					"scriptPublicKey": map[string]any{"scriptPublicKey": testScript},
					"blockDaaScore":   daa,
					"isCoinbase":      false,
				},
			})
		}
		writeJSON(t, w, out)
	}
}

func testAddresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("kaspa:addr%02d", i)
	}
	return out
}

func TestClient_UTXOs_Chunked(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	client, _ := newTestClient(t, utxoHandler(t, &calls, nil))

	addrs := testAddresses(25)
	utxos, err := client.UTXOs(context.Background(), addrs)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
	require.Len(t, utxos, 25)

	for i, u := range utxos {
		assert.Equal(t, addrs[i], u.Address)
		assert.Equal(t, uint64(100000000), u.Entry.Amount)
		assert.Equal(t, testScript, u.Entry.ScriptPublicKey.Hex())
	}
	assert.Equal(t, uint64(1234), utxos[0].Entry.BlockDAAScore)
	assert.Equal(t, uint64(5678), utxos[1].Entry.BlockDAAScore)
	assert.Equal(t, uint32(1), utxos[1].Outpoint.Index)
}

func TestClient_UTXOs_ParallelPreservesOrder(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	addrs := testAddresses(30)

	// The first chunk answers last.
	client, _ := newTestClient(t, utxoHandler(t, &calls, func(first string) time.Duration {
		if first == addrs[0] {
			return 30 * time.Millisecond
		}
		return 0
	}), func(o *Options) { o.ParallelChunks = true })

	utxos, err := client.UTXOs(context.Background(), addrs)
	require.NoError(t, err)
	require.Len(t, utxos, 30)
	for i, u := range utxos {
		assert.Equal(t, addrs[i], u.Address)
	}
}

func TestClient_UTXOs_MalformedEntry(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []map[string]any{{
			"address":   "kaspa:a",
			"outpoint":  map[string]any{"transactionId": "zz", "index": 0},
			"utxoEntry": map[string]any{"amount": "1", "scriptPublicKey": map[string]any{"scriptPublicKey": testScript}},
		}})
	})

	_, err := client.UTXOs(context.Background(), []string{"kaspa:a"})
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
}

func TestClient_FeeRates(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/info/feerates", r.URL.Path)
		_, _ = io.WriteString(w, `[{"name":"default","value":1},{"name":"fastest","value":"2"}]`)
	})

	rates, err := client.FeeRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "default", rates[0].Name)
	assert.Equal(t, Uint64(1), rates[0].Value)
	assert.Equal(t, Uint64(2), rates[1].Value)
}

func TestClient_Transactions_Dedup(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		addrs := addressesFromPath(t, r.URL.Path, "transactions")
		if addrs[0] == "kaspa:addr00" {
			_, _ = io.WriteString(w, `[{"transaction_id":"aa","is_accepted":false,"block_time":1},{"transaction_id":"bb","is_accepted":true,"block_time":2}]`)
			return
		}
		_, _ = io.WriteString(w, `[{"transaction_id":"aa","is_accepted":true,"block_time":3,"inputs":null,"outputs":[{"amount":"5","script_public_key_address":"kaspa:x","csfee":true}]},{"transaction_id":"cc","block_time":4}]`)
	})

	entries, err := client.Transactions(context.Background(), testAddresses(12))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "aa", entries[0].TransactionID)
	assert.True(t, entries[0].IsAccepted)
	assert.Equal(t, int64(3), entries[0].BlockTime)
	require.Len(t, entries[0].Outputs, 1)
	assert.True(t, entries[0].Outputs[0].PlatformFee)
	assert.Equal(t, Uint64(5), entries[0].Outputs[0].Amount)
	assert.Equal(t, "bb", entries[1].TransactionID)
	assert.Equal(t, "cc", entries[2].TransactionID)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	client, m := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	rates, err := client.FeeRates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rates)
	assert.Equal(t, int64(3), calls.Load())

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.NodeRetries)
	assert.Equal(t, int64(3), snap.FeeRateCalls)
	assert.Equal(t, int64(2), snap.NodeErrorsTotal)
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FeeRates(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ActiveAddresses(context.Background(), []string{"kaspa:a"})
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FeeRates(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func submitTx() *kaspa.RPCTransaction {
	return &kaspa.RPCTransaction{
		Version:      0,
		Inputs:       []kaspa.RPCInput{},
		Outputs:      []kaspa.RPCOutput{{Amount: 5}},
		SubnetworkID: strings.Repeat("00", kaspa.SubnetworkIDSize),
	}
}

func TestClient_Submit(t *testing.T) {
	t.Parallel()
	wantID := strings.Repeat("01", 32)

	client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/transaction/submit", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Transaction kaspa.RPCTransaction `json:"transaction"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint64(5), req.Transaction.Outputs[0].Amount)
		writeJSON(t, w, map[string]string{"transactionId": wantID})
	})

	id, err := client.Submit(context.Background(), submitTx())
	require.NoError(t, err)
	assert.Equal(t, wantID, id)
	assert.Equal(t, int64(1), m.Snapshot().SubmissionsOK)
}

func TestClient_SubmitRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		reason  string
		retries bool
	}{
		{"empty body", http.StatusOK, "", "empty response", false},
		{"null body", http.StatusOK, "null", "empty response", false},
		{"error field", http.StatusOK, `{"error":"orphan transaction"}`, "orphan transaction", false},
		{"error status with body", http.StatusBadRequest, `{"error":"mass too high"}`, "mass too high", false},
		{"server error is not retried", http.StatusInternalServerError, `oops`, "malformed response", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int64
			client, m := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			tx := submitTx()
			_, err := client.Submit(context.Background(), tx)
			require.Error(t, err)
			require.ErrorIs(t, err, walleterr.ErrInternal)

			var subErr *SubmissionError
			require.ErrorAs(t, err, &subErr)
			assert.Contains(t, subErr.Reason, tc.reason)
			assert.Same(t, tx, subErr.Transaction)
			assert.Equal(t, int64(1), calls.Load())
			assert.Equal(t, int64(1), m.Snapshot().SubmissionsFailed)
		})
	}
}

func TestClient_SubmitTransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(&Options{BaseURL: srv.URL, Metrics: &metrics.Metrics{}})
	_, err := client.Submit(context.Background(), submitTx())
	require.ErrorIs(t, err, walleterr.ErrNetworkError)
	require.NotErrorIs(t, err, walleterr.ErrInternal)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient(nil)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 4, c.retry.MaxAttempts)
	assert.NotNil(t, c.logger)
	assert.Same(t, metrics.Global, c.metrics)

	c = NewClient(&Options{MaxRetries: 1, ChunkSize: 3})
	assert.Equal(t, 2, c.retry.MaxAttempts)
	assert.Equal(t, 3, c.chunkSize)
}
