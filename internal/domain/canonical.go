package domain

import (
	"sort"
	"time"
)

// Unknown is the canonical fill value for categorical columns.
const Unknown = "Unknown"

// Canonicalize turns parser output into the canonical table. Each record's
// MainTime becomes the first non-zero entry of its candidate list; the rest
// of the pass is CanonicalizeEvents.
func Canonicalize(records []Record) []Event {
	events := make([]Event, 0, len(records))
	for _, r := range records {
		e := r.Event
		e.MainTime = firstNonZero(r.TimeCandidates)
		events = append(events, e)
	}
	return CanonicalizeEvents(events)
}

// CanonicalizeEvents applies the shared derivations uniformly: date_utc from
// main_time, "Unknown" fill for the categorical columns, deterministic IDs,
// and a stable ascending sort by main_time. It is idempotent, and it doubles
// as the re-typing pass after a snapshot read, where the durable text form
// may carry true empties where the in-memory form had defaults.
func CanonicalizeEvents(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)

	for i := range out {
		e := &out[i]
		e.MainTime = e.MainTime.UTC()
		e.DateUTC = dateBucket(e.MainTime)
		if e.EventType == "" {
			e.EventType = Unknown
		}
		if e.AlertLevel == "" {
			e.AlertLevel = AlertUnknown
		}
		if e.Country == "" {
			e.Country = Unknown
		}
		e.ID = generateID(*e)
	}

	// Stable sort keeps source order for equal timestamps; rows without a
	// main time go last, matching the upstream dashboard.
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].MainTime, out[j].MainTime
		if ti.IsZero() {
			return false
		}
		if tj.IsZero() {
			return true
		}
		return ti.Before(tj)
	})

	return out
}

// dateBucket truncates a timestamp to its UTC day. Zero in, zero out.
func dateBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func firstNonZero(candidates []time.Time) time.Time {
	for _, t := range candidates {
		if !t.IsZero() {
			return t.UTC()
		}
	}
	return time.Time{}
}
