// Package gdacs fetches and parses the GDACS RSS feed of natural disaster
// alerts.
package gdacs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
)

// DefaultFeedURL is the public GDACS RSS endpoint.
const DefaultFeedURL = "https://www.gdacs.org/xml/rss.xml"

// userAgent identifies this client to GDACS. Some proxies serve HTML block
// pages to unidentified clients, which the payload sniff then catches.
const userAgent = "disaster-feed-service/1.0 (+https://github.com/couchcryptid/disaster-feed-service)"

// Client fetches the GDACS RSS feed. It implements domain.Fetcher; the
// query is ignored because the feed is a single fixed URL.
type Client struct {
	feedURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GDACS feed client. An empty feedURL selects the
// public endpoint.
func NewClient(feedURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch retrieves the raw RSS body. It returns *domain.TransportError on
// network failure or a non-2xx status, and *domain.MalformedPayloadError
// when the body is an HTML block page or otherwise not XML.
func (c *Client) Fetch(ctx context.Context, _ domain.Query) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build gdacs request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Source: domain.SourceGDACS, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{Source: domain.SourceGDACS, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Source: domain.SourceGDACS, Err: err}
	}

	text, err := domain.CleanXMLPayload(domain.SourceGDACS, body)
	if err != nil {
		c.logger.Warn("gdacs payload rejected",
			"content_type", resp.Header.Get("Content-Type"),
			"error", err,
		)
		return nil, err
	}

	c.metrics.FetchDuration.WithLabelValues(domain.SourceGDACS).Observe(time.Since(start).Seconds())
	return []byte(text), nil
}
