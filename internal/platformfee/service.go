package platformfee

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mrz1836/kaswallet/internal/cache"
	"github.com/mrz1836/kaswallet/internal/metrics"
)

// SchedulePath is the fee service endpoint for Kaspa on Kaspa.
const SchedulePath = "api/v4/csfee?crypto=kaspa@kaspa"

// DefaultCacheTTL is how long a fetched schedule is reused.
const DefaultCacheTTL = 10 * time.Minute

// Getter fetches a JSON document. node.Client satisfies it.
type Getter interface {
	GetJSON(ctx context.Context, endpoint, path string, out any) error
}

// Logger is the interface for service logging.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Service loads the fee schedule from the platform, caching it in memory
// and, when a file store is set, on disk.
type Service struct {
	getter  Getter
	key     string
	ttl     time.Duration
	cache   *cache.Cache[json.RawMessage]
	store   *cache.FileStorage[json.RawMessage]
	logger  Logger
	metrics *metrics.Metrics
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Key separates cached schedules, usually the network name.
	Key     string
	TTL     time.Duration
	Store   *cache.FileStorage[json.RawMessage]
	Logger  Logger
	Metrics *metrics.Metrics
}

// NewService creates a Service fetching through getter.
func NewService(getter Getter, opts ServiceOptions) *Service {
	s := &Service{
		getter:  getter,
		key:     cache.Key(opts.Key, "csfee"),
		ttl:     opts.TTL,
		store:   opts.Store,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultCacheTTL
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Global
	}
	s.cache = cache.New[json.RawMessage]()
	if s.store != nil {
		loaded, err := s.store.Load()
		if err != nil {
			s.logger.Error("platform fee cache: %v", err)
		}
		if loaded != nil {
			s.cache = loaded
		}
		if pruned := s.cache.Prune(s.ttl); pruned > 0 {
			s.logger.Debug("platform fee cache %s: pruned %d expired, %d left", s.store.Path(), pruned, s.cache.Size())
		}
	}
	return s
}

// Schedule returns the current schedule, from cache when fresh.
func (s *Service) Schedule(ctx context.Context) (*Schedule, error) {
	if raw, ok := s.cache.Fresh(s.key, s.ttl); ok {
		if sched, err := ParseSchedule(raw); err == nil {
			s.metrics.RecordCacheHit()
			return sched, nil
		}
		s.cache.Delete(s.key)
	}
	s.metrics.RecordCacheMiss()

	var raw json.RawMessage
	if err := s.getter.GetJSON(ctx, metrics.EndpointPlatformFee, SchedulePath, &raw); err != nil {
		return nil, err
	}
	sched, err := ParseSchedule(raw)
	if err != nil {
		return nil, err
	}

	s.cache.Set(s.key, raw)
	if s.store != nil {
		if err := s.store.Save(s.cache); err != nil {
			s.logger.Error("platform fee cache: %v", err)
		}
	}
	s.logger.Debug("platform fee schedule loaded, enabled=%t", sched.Enabled)
	return sched, nil
}

// Invalidate drops the cached schedule.
func (s *Service) Invalidate() {
	s.cache.Delete(s.key)
	if s.store != nil {
		if err := s.store.Save(s.cache); err != nil {
			s.logger.Error("platform fee cache: %v", err)
		}
	}
}
