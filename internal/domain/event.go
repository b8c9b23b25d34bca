package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Source identifiers for the two upstream feeds.
const (
	SourceGDACS = "gdacs"
	SourceUSGS  = "usgs"
)

// AlertLevel is the coarse severity bucket shared by both feeds.
type AlertLevel string

const (
	AlertRed     AlertLevel = "Red"
	AlertOrange  AlertLevel = "Orange"
	AlertGreen   AlertLevel = "Green"
	AlertUnknown AlertLevel = "Unknown"
)

// Event is the canonical disaster event record. The first block is the
// cross-source consumer contract; the remaining fields are source-specific
// additions that consumers must treat as optional.
type Event struct {
	ID             string     `json:"id"`
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	Link           string     `json:"link,omitempty"`
	EventType      string     `json:"event_type"`
	AlertLevel     AlertLevel `json:"alert_level"`
	Country        string     `json:"country"`
	SeverityText   string     `json:"severity_text,omitempty"`
	PopulationText string     `json:"population_text,omitempty"`
	AlertScore     *float64   `json:"alert_score,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	MainTime       time.Time  `json:"main_time"`
	DateUTC        time.Time  `json:"date_utc"`

	// GDACS extensions.
	Description     string    `json:"description,omitempty"`
	ISO3            string    `json:"iso3,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
	EpisodeID       string    `json:"episode_id,omitempty"`
	SeverityValue   *float64  `json:"severity_value,omitempty"`
	SeverityUnit    string    `json:"severity_unit,omitempty"`
	PopulationValue *float64  `json:"population_value,omitempty"`
	PopulationUnit  string    `json:"population_unit,omitempty"`
	PubDate         time.Time `json:"pub_date,omitzero"`
	DateAdded       time.Time `json:"date_added,omitzero"`
	DateModified    time.Time `json:"date_modified,omitzero"`
	FromDate        time.Time `json:"from_date,omitzero"`
	ToDate          time.Time `json:"to_date,omitzero"`

	// USGS extensions.
	Magnitude     *float64 `json:"magnitude,omitempty"`
	MagnitudeType string   `json:"magnitude_type,omitempty"`
	DepthKm       *float64 `json:"depth_km,omitempty"`
	Place         string   `json:"place,omitempty"`
	Tsunami       int      `json:"tsunami,omitempty"`
	Felt          *int     `json:"felt,omitempty"`
	Status        string   `json:"status,omitempty"`
}

// Record is a parsed pre-canonical row: the event as extracted by a format
// parser plus the ordered candidates for its canonical time. The first
// non-zero candidate becomes MainTime during canonicalization.
type Record struct {
	Event          Event
	TimeCandidates []time.Time
}

// Query holds the source-specific fetch parameters. GDACS ignores all of
// them (the feed is a fixed URL); USGS maps them onto starttime, endtime
// and minmagnitude.
type Query struct {
	Start        time.Time
	End          time.Time
	MinMagnitude float64
}

// Fingerprint returns a stable cache key for the query.
func (q Query) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%g",
		q.Start.UTC().Format("2006-01-02"),
		q.End.UTC().Format("2006-01-02"),
		q.MinMagnitude,
	)
}

// Fetcher retrieves one raw feed payload for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// ParseAlertLevel normalizes a feed-supplied alert level string into the
// four-value enum. Anything unrecognized, including the empty string,
// becomes AlertUnknown.
func ParseAlertLevel(s string) AlertLevel {
	switch {
	case strings.EqualFold(s, string(AlertRed)):
		return AlertRed
	case strings.EqualFold(s, string(AlertOrange)):
		return AlertOrange
	case strings.EqualFold(s, string(AlertGreen)):
		return AlertGreen
	default:
		return AlertUnknown
	}
}

// AlertFromMagnitude derives an alert level from earthquake magnitude.
// The Green bucket absorbs everything below 5.5 on purpose; see package doc.
func AlertFromMagnitude(mag *float64) AlertLevel {
	if mag == nil {
		return AlertUnknown
	}
	switch {
	case *mag >= 7.0:
		return AlertRed
	case *mag >= 5.5:
		return AlertOrange
	default:
		return AlertGreen
	}
}

// generateID produces a deterministic ID from the event's key fields.
// Reprocessing the same feed window produces the same ID, so downstream
// stores can upsert idempotently.
func generateID(e Event) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s",
		e.Source, e.EventType, e.Country,
		e.MainTime.UTC().Format(time.RFC3339), e.Title,
	)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if e.Source == "" {
		return short
	}
	return e.Source + "-" + short
}
