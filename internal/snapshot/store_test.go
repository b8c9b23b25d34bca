package snapshot

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(filepath.Join(t.TempDir(), "cache.csv"), logger)
}

func fptr(v float64) *float64 { return &v }

func TestStore_RoundTrip(t *testing.T) {
	store := testStore(t)

	events := domain.CanonicalizeEvents([]domain.Event{
		{
			Source:       domain.SourceGDACS,
			Title:        "Green earthquake alert in Vanuatu",
			Link:         "https://www.gdacs.org/report.aspx?eventid=1485000",
			EventType:    "EQ",
			AlertLevel:   domain.AlertGreen,
			Country:      "Vanuatu",
			ISO3:         "VUT",
			SeverityText: "Magnitude 5.1M, Depth:10km",
			AlertScore:   fptr(1.5),
			Latitude:     fptr(-16.097),
			Longitude:    fptr(167.475),
			MainTime:     time.Date(2025, 12, 17, 14, 2, 0, 0, time.UTC),
			PubDate:      time.Date(2025, 12, 17, 15, 15, 4, 0, time.UTC),
		},
		{
			Source:     domain.SourceUSGS,
			Title:      "M 7.2 - South of the Fiji Islands",
			EventType:  "Earthquake",
			AlertLevel: domain.AlertRed,
			Country:    "South of the Fiji Islands",
			Magnitude:  fptr(7.2),
			AlertScore: fptr(798),
			DepthKm:    fptr(612.4),
			Latitude:   fptr(-24.8),
			Longitude:  fptr(179.9),
			MainTime:   time.Date(2025, 12, 16, 3, 30, 0, 0, time.UTC),
			Tsunami:    1,
		},
	})

	require.NoError(t, store.Write(events))
	assert.True(t, store.Exists())

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestStore_Read(t *testing.T) {
	t.Run("missing file is an error", func(t *testing.T) {
		_, err := testStore(t).Read()
		require.Error(t, err)
	})

	t.Run("empty file yields an empty table", func(t *testing.T) {
		store := testStore(t)
		require.NoError(t, os.WriteFile(store.Path(), nil, 0o644))

		got, err := store.Read()
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("refills categorical gaps from a hand-edited file", func(t *testing.T) {
		store := testStore(t)
		raw := "id,source,title,event_type,alert_level,country,main_time\n" +
			",gdacs,Flood alert,,,,2025-12-17T14:02:00Z\n"
		require.NoError(t, os.WriteFile(store.Path(), []byte(raw), 0o644))

		got, err := store.Read()
		require.NoError(t, err)
		require.Len(t, got, 1)

		e := got[0]
		assert.Equal(t, domain.Unknown, e.EventType)
		assert.Equal(t, domain.AlertUnknown, e.AlertLevel)
		assert.Equal(t, domain.Unknown, e.Country)
		assert.NotEmpty(t, e.ID)
		// date_utc comes from main_time, never from the file.
		assert.Equal(t, time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), e.DateUTC)
	})

	t.Run("unparsable cells become absent values", func(t *testing.T) {
		store := testStore(t)
		raw := "source,title,alert_score,latitude,main_time,felt\n" +
			"usgs,bad cells,not-a-number,91x,yesterday,many\n"
		require.NoError(t, os.WriteFile(store.Path(), []byte(raw), 0o644))

		got, err := store.Read()
		require.NoError(t, err)
		require.Len(t, got, 1)

		e := got[0]
		assert.Nil(t, e.AlertScore)
		assert.Nil(t, e.Latitude)
		assert.Nil(t, e.Felt)
		assert.True(t, e.MainTime.IsZero())
	})

	t.Run("stale date_utc column is overridden", func(t *testing.T) {
		store := testStore(t)
		raw := "source,title,main_time,date_utc\n" +
			"gdacs,drifted,2025-12-17T23:59:00Z,2020-01-01\n"
		require.NoError(t, os.WriteFile(store.Path(), []byte(raw), 0o644))

		got, err := store.Read()
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), got[0].DateUTC)
	})
}

func TestStore_WriteReplacesPriorGeneration(t *testing.T) {
	store := testStore(t)

	first := domain.CanonicalizeEvents([]domain.Event{
		{Source: domain.SourceGDACS, Title: "one", MainTime: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
		{Source: domain.SourceGDACS, Title: "two", MainTime: time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, store.Write(first))

	second := domain.CanonicalizeEvents([]domain.Event{
		{Source: domain.SourceGDACS, Title: "three", MainTime: time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, store.Write(second))

	got, err := store.Read()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "three", got[0].Title)

	// No temp-file leftovers after the rename.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
