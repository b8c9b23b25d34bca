package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	dec17 := time.Date(2025, 12, 17, 15, 15, 4, 0, time.UTC)

	t.Run("main time prefers first candidate", func(t *testing.T) {
		from := time.Date(2025, 12, 17, 14, 2, 0, 0, time.UTC)
		rec := Record{
			Event:          Event{Source: SourceGDACS, Title: "quake"},
			TimeCandidates: []time.Time{from, dec17},
		}

		events := Canonicalize([]Record{rec})
		require.Len(t, events, 1)
		assert.Equal(t, from, events[0].MainTime)
	})

	t.Run("main time falls back to later candidate", func(t *testing.T) {
		rec := Record{
			Event:          Event{Source: SourceGDACS, Title: "quake"},
			TimeCandidates: []time.Time{{}, dec17},
		}

		events := Canonicalize([]Record{rec})
		require.Len(t, events, 1)
		assert.Equal(t, dec17, events[0].MainTime)
		assert.Equal(t, time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), events[0].DateUTC)
	})

	t.Run("no candidates leaves main time and date absent", func(t *testing.T) {
		rec := Record{Event: Event{Source: SourceGDACS, Title: "undated"}}

		events := Canonicalize([]Record{rec})
		require.Len(t, events, 1)
		assert.True(t, events[0].MainTime.IsZero())
		assert.True(t, events[0].DateUTC.IsZero())
	})
}

func TestCanonicalizeEvents(t *testing.T) {
	t.Run("fills categorical columns", func(t *testing.T) {
		events := CanonicalizeEvents([]Event{{Source: SourceGDACS, Title: "bare"}})

		require.Len(t, events, 1)
		assert.Equal(t, Unknown, events[0].EventType)
		assert.Equal(t, AlertUnknown, events[0].AlertLevel)
		assert.Equal(t, Unknown, events[0].Country)
	})

	t.Run("derives date_utc from main_time", func(t *testing.T) {
		events := CanonicalizeEvents([]Event{{
			MainTime: time.Date(2025, 12, 17, 23, 59, 59, 0, time.UTC),
			// A stale bucket must be overwritten, never trusted.
			DateUTC: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		}})

		require.Len(t, events, 1)
		assert.Equal(t, time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), events[0].DateUTC)
	})

	t.Run("sorts ascending with stable ties and undated last", func(t *testing.T) {
		t1 := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
		t2 := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)

		events := CanonicalizeEvents([]Event{
			{Title: "undated"},
			{Title: "late", MainTime: t2},
			{Title: "tie-a", MainTime: t1},
			{Title: "tie-b", MainTime: t1},
		})

		require.Len(t, events, 4)
		assert.Equal(t, "tie-a", events[0].Title)
		assert.Equal(t, "tie-b", events[1].Title)
		assert.Equal(t, "late", events[2].Title)
		assert.Equal(t, "undated", events[3].Title)
	})

	t.Run("idempotent", func(t *testing.T) {
		score := 2.5
		once := CanonicalizeEvents([]Event{
			{Source: SourceGDACS, Title: "a", MainTime: time.Date(2025, 12, 17, 10, 0, 0, 0, time.UTC), AlertScore: &score},
			{Source: SourceGDACS, Title: "b"},
		})
		twice := CanonicalizeEvents(once)

		assert.Equal(t, once, twice)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := []Event{{Title: "b", MainTime: time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC)}, {Title: "a", MainTime: time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)}}
		_ = CanonicalizeEvents(in)
		assert.Equal(t, "b", in[0].Title)
		assert.Empty(t, in[0].EventType)
	})

	t.Run("assigns deterministic ids", func(t *testing.T) {
		e := Event{Source: SourceUSGS, EventType: "Earthquake", Country: "Vanuatu", Title: "M 5.6", MainTime: time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)}

		first := CanonicalizeEvents([]Event{e})
		second := CanonicalizeEvents([]Event{e})

		require.Len(t, first, 1)
		assert.NotEmpty(t, first[0].ID)
		assert.True(t, len(first[0].ID) > len("usgs-"))
		assert.Equal(t, first[0].ID, second[0].ID)
	})
}

func TestParseAlertLevel(t *testing.T) {
	tests := []struct {
		in   string
		want AlertLevel
	}{
		{"Red", AlertRed},
		{"red", AlertRed},
		{"ORANGE", AlertOrange},
		{"Green", AlertGreen},
		{"", AlertUnknown},
		{"Purple", AlertUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAlertLevel(tt.in), "input %q", tt.in)
	}
}

func TestAlertFromMagnitude(t *testing.T) {
	mag := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		mag  *float64
		want AlertLevel
	}{
		{"absent", nil, AlertUnknown},
		{"major", mag(7.0), AlertRed},
		{"above major", mag(8.3), AlertRed},
		{"strong", mag(5.5), AlertOrange},
		{"just below major", mag(6.9), AlertOrange},
		{"moderate", mag(4.5), AlertGreen},
		{"minor stays green", mag(2.1), AlertGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlertFromMagnitude(tt.mag))
		})
	}
}

func TestQueryFingerprint(t *testing.T) {
	q := Query{
		Start:        time.Date(2025, 11, 17, 3, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 12, 17, 3, 0, 0, 0, time.UTC),
		MinMagnitude: 2.5,
	}
	assert.Equal(t, "2025-11-17|2025-12-17|2.5", q.Fingerprint())
	assert.Equal(t, "0001-01-01|0001-01-01|0", Query{}.Fingerprint())
}
