package usgs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleQuakeML = `<?xml version="1.0"?><q:quakeml xmlns:q="http://quakeml.org/xmlns/quakeml/1.2"><eventParameters></eventParameters></q:quakeml>`

func testClient(url string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(url, 5*time.Second, observability.NewMetricsForTesting(), logger)
}

func testQuery() domain.Query {
	return domain.Query{
		Start:        time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC),
		MinMagnitude: 2.5,
	}
}

func TestClient_Fetch(t *testing.T) {
	t.Run("builds the catalog query", func(t *testing.T) {
		var got url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleGeoJSON))
		}))
		defer srv.Close()

		body, err := testClient(srv.URL).Fetch(context.Background(), testQuery())
		require.NoError(t, err)
		assert.JSONEq(t, sampleGeoJSON, string(body))

		assert.Equal(t, "geojson", got.Get("format"))
		assert.Equal(t, "2025-11-17", got.Get("starttime"))
		assert.Equal(t, "2025-12-17", got.Get("endtime"))
		assert.Equal(t, "2.5", got.Get("minmagnitude"))
		assert.Equal(t, "time", got.Get("orderby"))
	})

	t.Run("non-2xx status is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Fetch(context.Background(), testQuery())
		var transport *domain.TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, http.StatusTooManyRequests, transport.Status)
		assert.Equal(t, domain.SourceUSGS, transport.Source)
	})

	t.Run("html block page is a malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html><body>Maintenance</body></html>"))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Fetch(context.Background(), testQuery())
		var malformed *domain.MalformedPayloadError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, domain.PayloadHTML, malformed.Kind)
	})
}

func TestClient_FetchQuakeML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xml", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleQuakeML))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL).FetchQuakeML(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, sampleQuakeML, string(body))
}

func TestQuakeMLExporter(t *testing.T) {
	t.Run("writes the body verbatim", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(sampleQuakeML))
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "earthquakes.xml")
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		x := NewQuakeMLExporter(testClient(srv.URL), path, logger)

		require.NoError(t, x.Export(context.Background(), testQuery()))

		written, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, sampleQuakeML, string(written))
	})

	t.Run("fetch failure surfaces without touching the file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "earthquakes.xml")
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		x := NewQuakeMLExporter(testClient(srv.URL), path, logger)

		require.Error(t, x.Export(context.Background(), testQuery()))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}
