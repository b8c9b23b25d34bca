// Package usgs fetches and parses earthquake data from the USGS event
// catalog, and exports the companion QuakeML document for external XSLT
// tooling.
package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
)

// DefaultAPIURL is the public USGS FDSN event query endpoint.
const DefaultAPIURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// Client fetches earthquake data from the USGS catalog. Fetch returns the
// GeoJSON body; FetchQuakeML returns the same query as QuakeML XML.
type Client struct {
	apiURL     string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS catalog client. An empty apiURL selects the
// public endpoint.
func NewClient(apiURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch retrieves the GeoJSON body for the query window. It returns
// *domain.TransportError on network failure or a non-2xx status, and
// *domain.MalformedPayloadError when the body is an HTML block page.
func (c *Client) Fetch(ctx context.Context, q domain.Query) ([]byte, error) {
	start := time.Now()

	body, err := c.get(ctx, "geojson", q)
	if err != nil {
		return nil, err
	}

	text, err := domain.CleanJSONPayload(domain.SourceUSGS, body)
	if err != nil {
		c.logger.Warn("usgs payload rejected", "error", err)
		return nil, err
	}

	c.metrics.FetchDuration.WithLabelValues(domain.SourceUSGS).Observe(time.Since(start).Seconds())
	return []byte(text), nil
}

// FetchQuakeML retrieves the same query window as QuakeML XML. The caller
// persists it verbatim; failures here never affect the tabular pipeline.
func (c *Client) FetchQuakeML(ctx context.Context, q domain.Query) ([]byte, error) {
	body, err := c.get(ctx, "xml", q)
	if err != nil {
		return nil, err
	}

	text, err := domain.CleanXMLPayload(domain.SourceUSGS, body)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (c *Client) get(ctx context.Context, format string, q domain.Query) ([]byte, error) {
	params := url.Values{
		"format":       {format},
		"starttime":    {q.Start.UTC().Format("2006-01-02")},
		"endtime":      {q.End.UTC().Format("2006-01-02")},
		"minmagnitude": {strconv.FormatFloat(q.MinMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build usgs request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Source: domain.SourceUSGS, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{Source: domain.SourceUSGS, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Source: domain.SourceUSGS, Err: err}
	}
	return body, nil
}
