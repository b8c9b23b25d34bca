// Package snapshot persists the last successful canonical table as a single
// CSV file per source, so the dashboard stays usable through upstream
// outages. The store holds exactly one generation: every write overwrites
// the prior snapshot, and reads re-type the plain-text columns because CSV
// loses the in-memory types.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// header is the durable column contract. Order matters: readers index by
// header name, so adding columns is safe, reordering is not.
var header = []string{
	"id", "source", "title", "link", "event_type", "alert_level", "country",
	"severity_text", "population_text", "alert_score", "latitude", "longitude",
	"main_time", "date_utc",
	"description", "iso3", "event_id", "episode_id",
	"severity_value", "severity_unit", "population_value", "population_unit",
	"pub_date", "date_added", "date_modified", "from_date", "to_date",
	"magnitude", "magnitude_type", "depth_km", "place", "tsunami", "felt", "status",
}

// Store reads and writes one source's snapshot file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store for the given file path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether a snapshot has ever been written.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Write replaces the snapshot with the given canonical table. The write
// goes through a temp file and rename so a crash mid-write leaves the old
// generation intact rather than a torn file.
func (s *Store) Write(events []domain.Event) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for i := range events {
		if err := w.Write(marshalRow(&events[i])); err != nil {
			tmp.Close()
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Info("snapshot written", "path", s.path, "rows", len(events))
	return nil
}

// Read loads the snapshot back into typed, canonical form. Timestamp and
// numeric cells that fail to parse become absent rather than errors, and the
// categorical "Unknown" fill is re-applied, since the durable form may carry
// true empties (particularly after a schema change).
func (s *Store) Read() ([]domain.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate rows written under an older header

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Event{}, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}

	events := make([]domain.Event, 0, len(rows)-1)
	for _, row := range rows[1:] {
		events = append(events, unmarshalRow(row, col))
	}
	return domain.CanonicalizeEvents(events), nil
}

func marshalRow(e *domain.Event) []string {
	return []string{
		e.ID, e.Source, e.Title, e.Link, e.EventType, string(e.AlertLevel), e.Country,
		e.SeverityText, e.PopulationText,
		formatFloat(e.AlertScore), formatFloat(e.Latitude), formatFloat(e.Longitude),
		formatTime(e.MainTime), formatDate(e.DateUTC),
		e.Description, e.ISO3, e.EventID, e.EpisodeID,
		formatFloat(e.SeverityValue), e.SeverityUnit, formatFloat(e.PopulationValue), e.PopulationUnit,
		formatTime(e.PubDate), formatTime(e.DateAdded), formatTime(e.DateModified),
		formatTime(e.FromDate), formatTime(e.ToDate),
		formatFloat(e.Magnitude), e.MagnitudeType, formatFloat(e.DepthKm), e.Place,
		strconv.Itoa(e.Tsunami), formatInt(e.Felt), e.Status,
	}
}

func unmarshalRow(row []string, col map[string]int) domain.Event {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	return domain.Event{
		ID:             cell("id"),
		Source:         cell("source"),
		Title:          cell("title"),
		Link:           cell("link"),
		EventType:      cell("event_type"),
		AlertLevel:     domain.ParseAlertLevel(cell("alert_level")),
		Country:        cell("country"),
		SeverityText:   cell("severity_text"),
		PopulationText: cell("population_text"),
		AlertScore:     parseFloat(cell("alert_score")),
		Latitude:       parseFloat(cell("latitude")),
		Longitude:      parseFloat(cell("longitude")),
		MainTime:       parseTime(cell("main_time")),

		Description:     cell("description"),
		ISO3:            cell("iso3"),
		EventID:         cell("event_id"),
		EpisodeID:       cell("episode_id"),
		SeverityValue:   parseFloat(cell("severity_value")),
		SeverityUnit:    cell("severity_unit"),
		PopulationValue: parseFloat(cell("population_value")),
		PopulationUnit:  cell("population_unit"),
		PubDate:         parseTime(cell("pub_date")),
		DateAdded:       parseTime(cell("date_added")),
		DateModified:    parseTime(cell("date_modified")),
		FromDate:        parseTime(cell("from_date")),
		ToDate:          parseTime(cell("to_date")),

		Magnitude:     parseFloat(cell("magnitude")),
		MagnitudeType: cell("magnitude_type"),
		DepthKm:       parseFloat(cell("depth_km")),
		Place:         cell("place"),
		Tsunami:       parseIntOrZero(cell("tsunami")),
		Felt:          parseInt(cell("felt")),
		Status:        cell("status"),
		// date_utc is deliberately not read back: CanonicalizeEvents
		// re-derives it from main_time, which is the invariant.
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
