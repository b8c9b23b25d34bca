// Package pipeline composes fetch, parse, canonicalize, and snapshot
// persistence into the load-with-fallback operation the display layer calls,
// and runs the periodic refresh loop around it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
)

// Parser converts one raw payload into pre-canonical records.
type Parser interface {
	Parse(payload []byte) ([]domain.Record, error)
}

// Store is the durable single-generation snapshot of the last good table.
type Store interface {
	Write(events []domain.Event) error
	Read() ([]domain.Event, error)
	Exists() bool
}

// Exporter persists a side-channel rendition of the query (QuakeML for the
// earthquake source). Failures are logged, never propagated.
type Exporter interface {
	Export(ctx context.Context, q domain.Query) error
}

// Publisher exports canonical events to a downstream sink. Optional.
type Publisher interface {
	PublishBatch(ctx context.Context, events []domain.Event) error
}

// Window describes the query window a source is loaded with. GDACS ignores
// it; USGS turns it into starttime/endtime/minmagnitude.
type Window struct {
	DaysBack     int
	MinMagnitude float64
}

// Loader runs one source's load-with-fallback state machine. It is
// stateless per call except for the durable snapshot side effect.
type Loader struct {
	source    string
	fetcher   domain.Fetcher
	parser    Parser
	store     Store
	exporter  Exporter  // nil when the source has no side export
	publisher Publisher // nil when Kafka export is disabled
	window    Window
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader wires one source's pipeline stages. exporter and publisher may
// be nil.
func NewLoader(source string, fetcher domain.Fetcher, parser Parser, store Store, exporter Exporter, publisher Publisher, window Window, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:    source,
		fetcher:   fetcher,
		parser:    parser,
		store:     store,
		exporter:  exporter,
		publisher: publisher,
		window:    window,
		logger:    logger,
		metrics:   metrics,
	}
}

// Source returns the source identifier this loader serves.
func (l *Loader) Source() string { return l.source }

// Query builds the default query window for a load starting now.
func (l *Loader) Query(now time.Time) domain.Query {
	if l.window.DaysBack <= 0 {
		return domain.Query{}
	}
	end := now.UTC()
	return domain.Query{
		Start:        end.AddDate(0, 0, -l.window.DaysBack),
		End:          end,
		MinMagnitude: l.window.MinMagnitude,
	}
}

// Load fetches, parses, and canonicalizes one table for the query, falling
// back to the snapshot on any fetch or parse failure. It never returns an
// error: the second return value is an advisory diagnostic, empty on a
// fully live load. The returned table is always structurally valid, possibly
// empty.
func (l *Loader) Load(ctx context.Context, q domain.Query) ([]domain.Event, string) {
	payload, err := l.fetcher.Fetch(ctx, q)
	if err != nil {
		l.metrics.FetchTotal.WithLabelValues(l.source, fetchOutcome(err)).Inc()
		l.logger.Warn("fetch failed", "source", l.source, "error", err)
		return l.fallback(err)
	}

	records, err := l.parser.Parse(payload)
	if err != nil {
		l.metrics.FetchTotal.WithLabelValues(l.source, "parse_error").Inc()
		l.logger.Warn("parse failed", "source", l.source, "error", err)
		return l.fallback(err)
	}

	l.metrics.FetchTotal.WithLabelValues(l.source, "success").Inc()
	events := domain.Canonicalize(records)

	// Everything past this point is best-effort: the fresh table is
	// returned regardless of persistence or export outcomes.
	if l.exporter != nil {
		if err := l.exporter.Export(ctx, q); err != nil {
			l.metrics.SideExportErrors.Inc()
			l.logger.Warn("side export failed", "source", l.source, "error", err)
		}
	}

	if err := l.store.Write(events); err != nil {
		l.metrics.SnapshotWriteErrors.Inc()
		l.logger.Warn("snapshot write failed", "source", l.source, "error", err)
	}

	if l.publisher != nil {
		if err := l.publisher.PublishBatch(ctx, events); err != nil {
			l.metrics.PublishErrors.Inc()
			l.logger.Warn("publish failed", "source", l.source, "error", err)
		}
	}

	l.metrics.RowsLoaded.WithLabelValues(l.source).Set(float64(len(events)))
	l.logger.Info("feed loaded", "source", l.source, "rows", len(events))
	return events, ""
}

// fallback reads the snapshot after a live-path failure. With no snapshot
// on disk the caller still gets a structurally valid empty table.
func (l *Loader) fallback(cause error) ([]domain.Event, string) {
	if !l.store.Exists() {
		l.metrics.FallbackTotal.WithLabelValues(l.source, "empty").Inc()
		l.metrics.RowsLoaded.WithLabelValues(l.source).Set(0)
		return []domain.Event{}, fmt.Sprintf("%s fetch failed and no cache found: %v", l.source, cause)
	}

	events, err := l.store.Read()
	if err != nil {
		l.metrics.FallbackTotal.WithLabelValues(l.source, "empty").Inc()
		l.metrics.RowsLoaded.WithLabelValues(l.source).Set(0)
		l.logger.Error("snapshot read failed", "source", l.source, "error", err)
		return []domain.Event{}, fmt.Sprintf("%s fetch failed and cache is unreadable: %v", l.source, cause)
	}

	l.metrics.FallbackTotal.WithLabelValues(l.source, "cache").Inc()
	l.metrics.RowsLoaded.WithLabelValues(l.source).Set(float64(len(events)))
	l.logger.Info("serving cached snapshot", "source", l.source, "rows", len(events))
	return events, fmt.Sprintf("%s fetch failed, using cached data: %v", l.source, cause)
}

func fetchOutcome(err error) string {
	var transport *domain.TransportError
	if errors.As(err, &transport) {
		return "transport_error"
	}
	var malformed *domain.MalformedPayloadError
	if errors.As(err, &malformed) {
		return "malformed_payload"
	}
	return "transport_error"
}
