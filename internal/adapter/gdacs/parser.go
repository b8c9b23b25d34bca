package gdacs

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// Parser converts a GDACS RSS document into pre-canonical records.
// It is a pure transform; it never touches the network or disk.
type Parser struct{}

// NewParser creates an RSS parser.
func NewParser() *Parser { return &Parser{} }

// The xml struct tags below are the per-field extraction rule table:
// canonical column -> (namespaced source path). Type coercion and defaults
// are applied per field in buildRecord; a bad field degrades that row only.

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`

	EventType  string `xml:"http://www.gdacs.org eventtype"`
	AlertLevel string `xml:"http://www.gdacs.org alertlevel"`
	Country    string `xml:"http://www.gdacs.org country"`
	ISO3       string `xml:"http://www.gdacs.org iso3"`
	EventID    string `xml:"http://www.gdacs.org eventid"`
	EpisodeID  string `xml:"http://www.gdacs.org episodeid"`
	AlertScore string `xml:"http://www.gdacs.org alertscore"`

	Severity   valueUnit `xml:"http://www.gdacs.org severity"`
	Population valueUnit `xml:"http://www.gdacs.org population"`

	Point geoPoint `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# Point"`

	PubDate      string `xml:"pubDate"`
	DateAdded    string `xml:"http://www.gdacs.org dateadded"`
	DateModified string `xml:"http://www.gdacs.org datemodified"`
	FromDate     string `xml:"http://www.gdacs.org fromdate"`
	ToDate       string `xml:"http://www.gdacs.org todate"`
}

type valueUnit struct {
	Value string `xml:"value,attr"`
	Unit  string `xml:"unit,attr"`
	Text  string `xml:",chardata"`
}

type geoPoint struct {
	Lat  string `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# lat"`
	Long string `xml:"http://www.w3.org/2003/01/geo/wgs84_pos# long"`
}

// Parse decodes the RSS document and extracts one record per channel item.
// It fails with *domain.MalformedPayloadError only when the document itself
// is not well-formed XML; individual items with missing or malformed fields
// degrade to per-field defaults and never abort the batch. An empty channel
// yields an empty, non-nil record slice.
func (p *Parser) Parse(payload []byte) ([]domain.Record, error) {
	var doc rssDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, &domain.MalformedPayloadError{
			Source: domain.SourceGDACS,
			Kind:   domain.PayloadInvalid,
			Err:    err,
		}
	}

	records := make([]domain.Record, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		records = append(records, buildRecord(it))
	}
	return records, nil
}

func buildRecord(it rssItem) domain.Record {
	fromDate := parseRFC822(it.FromDate)
	pubDate := parseRFC822(it.PubDate)

	e := domain.Event{
		Source:         domain.SourceGDACS,
		Title:          strings.TrimSpace(it.Title),
		Description:    strings.TrimSpace(it.Description),
		Link:           strings.TrimSpace(it.Link),
		EventType:      textOrDefault(it.EventType, domain.Unknown),
		AlertLevel:     domain.ParseAlertLevel(strings.TrimSpace(it.AlertLevel)),
		Country:        textOrDefault(it.Country, domain.Unknown),
		ISO3:           strings.TrimSpace(it.ISO3),
		EventID:        strings.TrimSpace(it.EventID),
		EpisodeID:      strings.TrimSpace(it.EpisodeID),
		SeverityText:   strings.TrimSpace(it.Severity.Text),
		PopulationText: strings.TrimSpace(it.Population.Text),

		AlertScore: parseFloat(it.AlertScore),
		Latitude:   parseFloat(it.Point.Lat),
		Longitude:  parseFloat(it.Point.Long),

		SeverityValue:   parseFloat(it.Severity.Value),
		SeverityUnit:    strings.TrimSpace(it.Severity.Unit),
		PopulationValue: parseFloat(it.Population.Value),
		PopulationUnit:  strings.TrimSpace(it.Population.Unit),

		PubDate:      pubDate,
		DateAdded:    parseRFC822(it.DateAdded),
		DateModified: parseRFC822(it.DateModified),
		FromDate:     fromDate,
		ToDate:       parseRFC822(it.ToDate),
	}

	return domain.Record{
		Event: e,
		// Event start time first, publish time as the fallback.
		TimeCandidates: []time.Time{fromDate, pubDate},
	}
}

func textOrDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// parseFloat coerces a string to a float pointer, nil on missing or
// non-numeric input. Never propagates an error per row.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// rfc822Layouts covers the timestamp shapes GDACS emits, zone name and
// numeric zone variants, e.g. "Wed, 17 Dec 2025 15:15:04 GMT".
var rfc822Layouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// parseRFC822 parses an RFC-822 style timestamp into UTC, returning the
// zero time when the value is missing or unparsable.
func parseRFC822(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range rfc822Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
