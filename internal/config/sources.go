package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source type identifiers, matching the domain source names.
const (
	SourceTypeGDACS = "gdacs"
	SourceTypeUSGS  = "usgs"
)

// SourceConfig describes one feed source. URL and CacheFile apply to both
// types; the magnitude/window/QuakeML settings are USGS-only and ignored
// for GDACS.
type SourceConfig struct {
	Type      string `yaml:"type"`
	URL       string `yaml:"url"`
	CacheFile string `yaml:"cache_file"`

	MinMagnitude float64 `yaml:"min_magnitude"`
	DaysBack     int     `yaml:"days_back"`
	QuakeMLFile  string  `yaml:"quakeml_file"`
}

func (s *SourceConfig) validate() error {
	switch s.Type {
	case SourceTypeGDACS:
	case SourceTypeUSGS:
		if s.DaysBack <= 0 {
			return fmt.Errorf("usgs source: days_back must be positive, got %d", s.DaysBack)
		}
	default:
		return fmt.Errorf("unknown source type: %q", s.Type)
	}
	if s.CacheFile == "" {
		return fmt.Errorf("%s source: cache_file is required", s.Type)
	}
	return nil
}

// sourcesFile is the YAML document shape for SOURCES_FILE.
type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSourcesFile reads feed source definitions from a YAML file:
//
//	sources:
//	  - type: gdacs
//	    cache_file: GDACS_cache.csv
//	  - type: usgs
//	    cache_file: USGS_cache.csv
//	    min_magnitude: 2.5
//	    days_back: 30
//	    quakeml_file: earthquakes.xml
func LoadSourcesFile(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var doc sourcesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return doc.Sources, nil
}

// sourcesFromEnv builds source definitions from flat environment variables.
// SOURCES selects which feeds are enabled ("gdacs,usgs" by default).
func sourcesFromEnv() ([]SourceConfig, error) {
	minMag, err := parseFloatEnv("USGS_MIN_MAGNITUDE", "2.5")
	if err != nil {
		return nil, err
	}
	daysBack, err := parseIntEnv("USGS_DAYS_BACK", "30")
	if err != nil {
		return nil, err
	}

	var sources []SourceConfig
	for _, name := range strings.Split(envOrDefault("SOURCES", "gdacs,usgs"), ",") {
		switch strings.TrimSpace(name) {
		case SourceTypeGDACS:
			sources = append(sources, SourceConfig{
				Type:      SourceTypeGDACS,
				URL:       os.Getenv("GDACS_FEED_URL"),
				CacheFile: envOrDefault("GDACS_CACHE_FILE", "GDACS_cache.csv"),
			})
		case SourceTypeUSGS:
			sources = append(sources, SourceConfig{
				Type:         SourceTypeUSGS,
				URL:          os.Getenv("USGS_API_URL"),
				CacheFile:    envOrDefault("USGS_CACHE_FILE", "USGS_cache.csv"),
				MinMagnitude: minMag,
				DaysBack:     daysBack,
				QuakeMLFile:  envOrDefault("QUAKEML_EXPORT_FILE", "earthquakes.xml"),
			})
		case "":
		default:
			return nil, fmt.Errorf("unknown source in SOURCES: %q", name)
		}
	}
	return sources, nil
}
