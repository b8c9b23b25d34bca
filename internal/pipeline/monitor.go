package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// LoadResult is the latest table for one source, as handed to the display
// layer. Events is immutable once stored.
type LoadResult struct {
	Events      []domain.Event
	Diagnostic  string // empty when the load was fully live
	RefreshedAt time.Time
}

// Monitor refreshes every configured source on an interval and holds the
// latest result per source for the HTTP API. One goroutine performs all
// loads, so each snapshot file has exactly one writer.
type Monitor struct {
	loaders  []*Loader
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.RWMutex
	results map[string]LoadResult
	ready   atomic.Bool
}

// NewMonitor creates a Monitor. A nil clock selects the real clock.
func NewMonitor(loaders []*Loader, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Monitor{
		loaders:  loaders,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		results:  make(map[string]LoadResult),
	}
}

// Run refreshes all sources immediately, then on every interval tick until
// the context is cancelled. It always returns nil; individual load failures
// surface as diagnostics, not errors.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "sources", len(m.loaders), "interval", m.interval)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	m.RefreshAll(ctx)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			m.RefreshAll(ctx)
		}
	}
}

// RefreshAll loads every source once, sequentially, and stores the results.
func (m *Monitor) RefreshAll(ctx context.Context) {
	start := m.clock.Now()

	for _, l := range m.loaders {
		if ctx.Err() != nil {
			return
		}
		now := m.clock.Now().UTC()
		events, diagnostic := l.Load(ctx, l.Query(now))

		m.mu.Lock()
		m.results[l.Source()] = LoadResult{
			Events:      events,
			Diagnostic:  diagnostic,
			RefreshedAt: now,
		}
		m.mu.Unlock()

		m.metrics.LastRefresh.WithLabelValues(l.Source()).Set(float64(now.Unix()))
	}

	m.metrics.RefreshDuration.Observe(m.clock.Since(start).Seconds())
	m.ready.Store(true)
}

// Sources lists the configured source identifiers in refresh order.
func (m *Monitor) Sources() []string {
	names := make([]string, 0, len(m.loaders))
	for _, l := range m.loaders {
		names = append(names, l.Source())
	}
	return names
}

// Result returns the latest load result for a source, and whether the
// source exists and has been refreshed at least once.
func (m *Monitor) Result(source string) (LoadResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[source]
	return r, ok
}

// CheckReadiness returns nil once the first refresh cycle has completed.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("no refresh cycle has completed yet")
	}
	return nil
}
