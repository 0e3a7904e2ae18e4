package platformfee

import "context"

// Source supplies the schedule in effect. *Service satisfies it.
type Source interface {
	Schedule(ctx context.Context) (*Schedule, error)
}

type staticSource struct {
	schedule *Schedule
}

// StaticSource always returns s. A nil schedule is disabled.
func StaticSource(s *Schedule) Source {
	if s == nil {
		s = Disabled()
	}
	return staticSource{schedule: s}
}

func (s staticSource) Schedule(context.Context) (*Schedule, error) {
	return s.schedule, nil
}

type fallbackSource struct {
	primary  Source
	fallback *Schedule
	logger   Logger
}

// WithFallback returns primary's schedule, or fallback when primary fails.
// A nil fallback propagates the failure.
func WithFallback(primary Source, fallback *Schedule, logger Logger) Source {
	if logger == nil {
		logger = nopLogger{}
	}
	return &fallbackSource{primary: primary, fallback: fallback, logger: logger}
}

func (f *fallbackSource) Schedule(ctx context.Context) (*Schedule, error) {
	s, err := f.primary.Schedule(ctx)
	if err == nil {
		return s, nil
	}
	if f.fallback == nil {
		return nil, err
	}
	f.logger.Error("platform fee schedule unavailable, using configured values: %v", err)
	return f.fallback, nil
}
