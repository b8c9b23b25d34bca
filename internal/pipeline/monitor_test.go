package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMonitor(clock clockwork.Clock, loaders ...*Loader) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMonitor(loaders, 10*time.Minute, clock, logger, observability.NewMetricsForTesting())
}

func TestMonitor_RefreshAll(t *testing.T) {
	ctx := context.Background()

	gdacsFetcher := &fakeFetcher{payload: []byte("<rss/>")}
	gdacsLoader := testLoader(gdacsFetcher, &fakeParser{records: liveRecords()}, &fakeStore{}, nil, nil)

	usgsFetcher := &fakeFetcher{err: &domain.TransportError{Source: domain.SourceUSGS, Status: 503}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	usgsLoader := NewLoader("usgs-cached", usgsFetcher, &fakeParser{}, &fakeStore{exists: true, events: cachedEvents()}, nil, nil, Window{}, logger, observability.NewMetricsForTesting())

	m := testMonitor(clockwork.NewFakeClock(), gdacsLoader, usgsLoader)

	require.Error(t, m.CheckReadiness(ctx), "not ready before the first cycle")
	_, ok := m.Result(gdacsLoader.Source())
	assert.False(t, ok)

	m.RefreshAll(ctx)

	require.NoError(t, m.CheckReadiness(ctx))

	live, ok := m.Result(gdacsLoader.Source())
	require.True(t, ok)
	assert.Len(t, live.Events, 2)
	assert.Empty(t, live.Diagnostic)
	assert.False(t, live.RefreshedAt.IsZero())

	cached, ok := m.Result("usgs-cached")
	require.True(t, ok)
	assert.Len(t, cached.Events, 3)
	assert.Contains(t, cached.Diagnostic, "using cached data")

	_, ok = m.Result("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{gdacsLoader.Source(), "usgs-cached"}, m.Sources())
}

func TestMonitor_Run(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetcher := &fakeFetcher{payload: []byte("<rss/>")}
	loader := testLoader(fetcher, &fakeParser{records: liveRecords()}, &fakeStore{}, nil, nil)
	m := testMonitor(clock, loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Run(ctx)
	}()

	// The first refresh happens before the ticker starts.
	require.Eventually(t, func() bool {
		return m.CheckReadiness(ctx) == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// Each interval tick triggers another refresh.
	clock.BlockUntil(1)
	clock.Advance(10 * time.Minute)
	require.Eventually(t, func() bool {
		return fetcher.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}
