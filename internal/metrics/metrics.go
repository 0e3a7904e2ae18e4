// Package metrics collects process counters using atomics.
package metrics

import (
	"sync/atomic"
	"time"
)

// Node endpoints tracked individually.
const (
	EndpointActive       = "active"
	EndpointUTXOs        = "utxos"
	EndpointFeeRates     = "feerates"
	EndpointSubmit       = "submit"
	EndpointTransactions = "transactions"
	EndpointPlatformFee  = "csfee"
)

// Metrics holds counters safe for concurrent use.
type Metrics struct {
	nodeCallsTotal   atomic.Int64
	nodeErrorsTotal  atomic.Int64
	nodeRetries      atomic.Int64
	nodeLatencyNanos atomic.Int64

	activeCalls       atomic.Int64
	utxoCalls         atomic.Int64
	feeRateCalls      atomic.Int64
	submitCalls       atomic.Int64
	transactionCalls  atomic.Int64
	platformFeeCalls  atomic.Int64
	discoveryBatches  atomic.Int64
	submissionsOK     atomic.Int64
	submissionsFailed atomic.Int64

	walletOpsTotal  atomic.Int64
	walletOpsErrors atomic.Int64

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// Global is the process-wide instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordNodeCall records one HTTP round trip to the node or fee service.
func (m *Metrics) RecordNodeCall(endpoint string, duration time.Duration, err error) {
	m.nodeCallsTotal.Add(1)
	m.nodeLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.nodeErrorsTotal.Add(1)
	}

	switch endpoint {
	case EndpointActive:
		m.activeCalls.Add(1)
	case EndpointUTXOs:
		m.utxoCalls.Add(1)
	case EndpointFeeRates:
		m.feeRateCalls.Add(1)
	case EndpointSubmit:
		m.submitCalls.Add(1)
	case EndpointTransactions:
		m.transactionCalls.Add(1)
	case EndpointPlatformFee:
		m.platformFeeCalls.Add(1)
	}
}

// RecordRetry records a retried node request.
func (m *Metrics) RecordRetry() {
	m.nodeRetries.Add(1)
}

// RecordDiscoveryBatch records one batched activity query during discovery.
func (m *Metrics) RecordDiscoveryBatch() {
	m.discoveryBatches.Add(1)
}

// RecordSubmission records the outcome of a transaction submission.
func (m *Metrics) RecordSubmission(err error) {
	if err != nil {
		m.submissionsFailed.Add(1)
		return
	}
	m.submissionsOK.Add(1)
}

// RecordWalletOp records a wallet operation.
func (m *Metrics) RecordWalletOp(err error) {
	m.walletOpsTotal.Add(1)
	if err != nil {
		m.walletOpsErrors.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	NodeCallsTotal    int64
	NodeErrorsTotal   int64
	NodeRetries       int64
	NodeLatencyNanos  int64
	ActiveCalls       int64
	UTXOCalls         int64
	FeeRateCalls      int64
	SubmitCalls       int64
	TransactionCalls  int64
	PlatformFeeCalls  int64
	DiscoveryBatches  int64
	SubmissionsOK     int64
	SubmissionsFailed int64
	WalletOpsTotal    int64
	WalletOpsErrors   int64
	CacheHits         int64
	CacheMisses       int64
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		NodeCallsTotal:    m.nodeCallsTotal.Load(),
		NodeErrorsTotal:   m.nodeErrorsTotal.Load(),
		NodeRetries:       m.nodeRetries.Load(),
		NodeLatencyNanos:  m.nodeLatencyNanos.Load(),
		ActiveCalls:       m.activeCalls.Load(),
		UTXOCalls:         m.utxoCalls.Load(),
		FeeRateCalls:      m.feeRateCalls.Load(),
		SubmitCalls:       m.submitCalls.Load(),
		TransactionCalls:  m.transactionCalls.Load(),
		PlatformFeeCalls:  m.platformFeeCalls.Load(),
		DiscoveryBatches:  m.discoveryBatches.Load(),
		SubmissionsOK:     m.submissionsOK.Load(),
		SubmissionsFailed: m.submissionsFailed.Load(),
		WalletOpsTotal:    m.walletOpsTotal.Load(),
		WalletOpsErrors:   m.walletOpsErrors.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
	}
}

// NodeLatencyAvgMs returns the average node latency in milliseconds, or 0
// before the first call.
func (m *Metrics) NodeLatencyAvgMs() float64 {
	calls := m.nodeCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.nodeLatencyNanos.Load()) / float64(calls) / 1e6
}

// CacheHitRate returns the cache hit rate as a percentage (0-100).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	m.nodeCallsTotal.Store(0)
	m.nodeErrorsTotal.Store(0)
	m.nodeRetries.Store(0)
	m.nodeLatencyNanos.Store(0)
	m.activeCalls.Store(0)
	m.utxoCalls.Store(0)
	m.feeRateCalls.Store(0)
	m.submitCalls.Store(0)
	m.transactionCalls.Store(0)
	m.platformFeeCalls.Store(0)
	m.discoveryBatches.Store(0)
	m.submissionsOK.Store(0)
	m.submissionsFailed.Store(0)
	m.walletOpsTotal.Store(0)
	m.walletOpsErrors.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
}
