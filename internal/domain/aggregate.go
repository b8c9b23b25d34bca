package domain

import (
	"sort"
	"time"
)

// Filter narrows a canonical table for display. Empty slices mean "no
// restriction" on that column; zero From/To leave the range open-ended.
type Filter struct {
	Types     []string
	Levels    []AlertLevel
	Countries []string
	From      time.Time // inclusive, compared against date_utc
	To        time.Time // inclusive
}

// Apply returns the events matching every populated filter dimension,
// preserving order.
func (f Filter) Apply(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !containsString(f.Types, e.EventType) {
			continue
		}
		if !containsLevel(f.Levels, e.AlertLevel) {
			continue
		}
		if !containsString(f.Countries, e.Country) {
			continue
		}
		if !f.From.IsZero() && e.DateUTC.Before(dateBucket(f.From)) {
			continue
		}
		if !f.To.IsZero() && e.DateUTC.After(dateBucket(f.To)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DailyStat aggregates one UTC day of events.
type DailyStat struct {
	Date       time.Time `json:"date_utc"`
	Count      int       `json:"count"`
	AvgScore   *float64  `json:"avg_alert_score,omitempty"`
	Cumulative int       `json:"cumulative"`
}

// DailyStats buckets events by date_utc, ascending, with per-day counts,
// average alert score (over rows that have one) and a running cumulative
// count. Events without a date are skipped.
func DailyStats(events []Event) []DailyStat {
	type acc struct {
		count    int
		scoreSum float64
		scoreN   int
	}
	byDay := make(map[time.Time]*acc)
	for _, e := range events {
		if e.DateUTC.IsZero() {
			continue
		}
		a := byDay[e.DateUTC]
		if a == nil {
			a = &acc{}
			byDay[e.DateUTC] = a
		}
		a.count++
		if e.AlertScore != nil {
			a.scoreSum += *e.AlertScore
			a.scoreN++
		}
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	stats := make([]DailyStat, 0, len(days))
	running := 0
	for _, d := range days {
		a := byDay[d]
		running += a.count
		s := DailyStat{Date: d, Count: a.count, Cumulative: running}
		if a.scoreN > 0 {
			avg := a.scoreSum / float64(a.scoreN)
			s.AvgScore = &avg
		}
		stats = append(stats, s)
	}
	return stats
}

// LevelDistribution counts events per alert level.
func LevelDistribution(events []Event) map[AlertLevel]int {
	dist := make(map[AlertLevel]int)
	for _, e := range events {
		dist[e.AlertLevel]++
	}
	return dist
}

// CountryCount is one row of the top-countries ranking.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// TopCountries ranks countries by event count, descending, ties broken
// alphabetically for stable output. At most n entries are returned.
func TopCountries(events []Event, n int) []CountryCount {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Country]++
	}
	ranked := make([]CountryCount, 0, len(counts))
	for c, k := range counts {
		ranked = append(ranked, CountryCount{Country: c, Count: k})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Country < ranked[j].Country
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopByScore returns the n events with the highest alert score that also
// carry coordinates, for map rendering. Events missing a score or a
// coordinate are excluded.
func TopByScore(events []Event, n int) []Event {
	eligible := make([]Event, 0, len(events))
	for _, e := range events {
		if e.AlertScore != nil && e.Latitude != nil && e.Longitude != nil {
			eligible = append(eligible, e)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return *eligible[i].AlertScore > *eligible[j].AlertScore
	})
	if n > 0 && len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}

func containsString(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsLevel(set []AlertLevel, v AlertLevel) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
