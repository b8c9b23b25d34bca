package usgs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// Parser converts a USGS GeoJSON feature collection into pre-canonical
// records. Pure transform, no I/O.
type Parser struct{}

// NewParser creates a GeoJSON parser.
func NewParser() *Parser { return &Parser{} }

// USGS GeoJSON response types. Coordinates are [lon, lat, depth_km].

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type properties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    *int64   `json:"time"` // epoch milliseconds
	URL     string   `json:"url"`
	Felt    *int     `json:"felt"`
	Sig     *float64 `json:"sig"` // USGS significance score (0-1000+)
	Tsunami int      `json:"tsunami"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	MagType string   `json:"magType"`
	Status  string   `json:"status"`
}

// Parse decodes the feature collection and extracts one record per feature.
// It fails with *domain.MalformedPayloadError only when the document is not
// valid JSON; features with missing fields degrade per field.
func (p *Parser) Parse(payload []byte) ([]domain.Record, error) {
	var fc featureCollection
	if err := json.Unmarshal(payload, &fc); err != nil {
		return nil, &domain.MalformedPayloadError{
			Source: domain.SourceUSGS,
			Kind:   domain.PayloadInvalid,
			Err:    err,
		}
	}

	records := make([]domain.Record, 0, len(fc.Features))
	for _, f := range fc.Features {
		records = append(records, buildRecord(f))
	}
	return records, nil
}

func buildRecord(f feature) domain.Record {
	props := f.Properties
	coords := f.Geometry.Coordinates

	var eventTime time.Time
	if props.Time != nil {
		eventTime = time.UnixMilli(*props.Time).UTC()
	}

	title := props.Title
	if title == "" {
		title = props.Place
	}

	e := domain.Event{
		Source:     domain.SourceUSGS,
		Title:      title,
		Link:       props.URL,
		EventType:  capitalize(typeOrDefault(props.Type)),
		AlertLevel: domain.AlertFromMagnitude(props.Mag),
		Country:    CountryFromPlace(props.Place),
		Place:      props.Place,

		Magnitude:     props.Mag,
		MagnitudeType: props.MagType,
		AlertScore:    props.Sig,
		Tsunami:       props.Tsunami,
		Felt:          props.Felt,
		Status:        props.Status,

		SeverityText:   severityText(props.Mag),
		PopulationText: populationText(props.Felt),
	}

	if len(coords) > 0 {
		e.Longitude = &coords[0]
	}
	if len(coords) > 1 {
		e.Latitude = &coords[1]
	}
	if len(coords) > 2 {
		e.DepthKm = &coords[2]
	}

	return domain.Record{
		Event:          e,
		TimeCandidates: []time.Time{eventTime},
	}
}

// CountryFromPlace extracts the country/region from a USGS place string
// like "7 km E of Lakatoro, Vanuatu": everything after the last comma, or
// the whole string when no comma is present. Empty input maps to Unknown.
func CountryFromPlace(place string) string {
	place = strings.TrimSpace(place)
	if place == "" {
		return domain.Unknown
	}
	if i := strings.LastIndex(place, ","); i >= 0 {
		return strings.TrimSpace(place[i+1:])
	}
	return place
}

func typeOrDefault(t string) string {
	if t == "" {
		return "earthquake"
	}
	return t
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// severityText renders the human-readable magnitude label, e.g. "M5.6".
// Zero magnitude stays blank, matching the upstream dashboard.
func severityText(mag *float64) string {
	if mag == nil || *mag == 0 {
		return ""
	}
	return fmt.Sprintf("M%g", *mag)
}

func populationText(felt *int) string {
	if felt == nil || *felt == 0 {
		return ""
	}
	return fmt.Sprintf("Felt by %d", *felt)
}
