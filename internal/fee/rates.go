// Package fee estimates network and platform fees and the largest amount
// a wallet can send in one transaction.
package fee

import (
	"context"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/kaswallet/internal/node"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// Tier names a fee-rate level published by the node.
type Tier string

// Known tiers, cheapest first.
const (
	Minimum Tier = "minimum"
	Default Tier = "default"
	Fastest Tier = "fastest"
)

// Tiers lists the known tiers in display order.
var Tiers = []Tier{Minimum, Default, Fastest}

// ParseTier maps a user supplied name to a tier. Unknown names get a
// suggestion when one is close.
func ParseTier(name string) (Tier, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Default, nil
	}
	best, bestDist := Tier(""), len(n)
	for _, t := range Tiers {
		if n == string(t) {
			return t, nil
		}
		if d := levenshtein.ComputeDistance(n, string(t)); d < bestDist {
			best, bestDist = t, d
		}
	}
	err := walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{"fee_rate": name})
	if best != "" && bestDist <= 2 {
		err = walleterr.WithSuggestion(err, "did you mean "+string(best)+"?")
	}
	return "", err
}

// RateTable maps tiers to fee rates in sompi per gram of mass. It is
// replaced wholesale, never patched.
type RateTable struct {
	rates map[Tier]uint64
}

// NewRateTable builds a table from node rates. Unknown names are ignored.
func NewRateTable(rates []node.FeeRate) *RateTable {
	t := &RateTable{rates: make(map[Tier]uint64, len(Tiers))}
	for _, r := range rates {
		tier := Tier(r.Name)
		for _, known := range Tiers {
			if tier == known {
				t.rates[tier] = uint64(r.Value)
			}
		}
	}
	return t
}

// Rate returns the rate for tier.
func (t *RateTable) Rate(tier Tier) (uint64, error) {
	if t != nil {
		if r, ok := t.rates[tier]; ok {
			return r, nil
		}
	}
	return 0, walleterr.WithDetails(walleterr.ErrFeeRateUnavailable, map[string]string{"fee_rate": string(tier)})
}

// Available returns the tiers present in the table, in display order.
func (t *RateTable) Available() []Tier {
	var out []Tier
	if t == nil {
		return out
	}
	for _, tier := range Tiers {
		if _, ok := t.rates[tier]; ok {
			out = append(out, tier)
		}
	}
	return out
}

// RateSource fetches node fee rates.
type RateSource interface {
	FeeRates(ctx context.Context) ([]node.FeeRate, error)
}

// RateCache memoizes the rate table until Invalidate is called.
type RateCache struct {
	source RateSource
	mu     sync.Mutex
	table  *RateTable
}

// NewRateCache creates an empty cache over source.
func NewRateCache(source RateSource) *RateCache {
	return &RateCache{source: source}
}

// Load fetches the rates and replaces the table.
func (c *RateCache) Load(ctx context.Context) (*RateTable, error) {
	rates, err := c.source.FeeRates(ctx)
	if err != nil {
		return nil, err
	}
	table := NewRateTable(rates)

	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
	return table, nil
}

// Table returns the cached table, loading it if needed.
func (c *RateCache) Table(ctx context.Context) (*RateTable, error) {
	c.mu.Lock()
	table := c.table
	c.mu.Unlock()
	if table != nil {
		return table, nil
	}
	return c.Load(ctx)
}

// Cached returns the table without fetching. It is nil until loaded.
func (c *RateCache) Cached() *RateTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

// Invalidate drops the cached table.
func (c *RateCache) Invalidate() {
	c.mu.Lock()
	c.table = nil
	c.mu.Unlock()
}
