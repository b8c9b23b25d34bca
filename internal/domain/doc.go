// Package domain models global disaster event data normalized from two
// public feeds.
//
// # Data Sources
//
// GDACS (Global Disaster Alert and Coordination System) publishes an RSS/XML
// feed of active natural disaster alerts at https://www.gdacs.org/xml/rss.xml.
// Items carry gdacs:-namespaced extensions (event type, alert level, country,
// severity, population exposure) plus geo:Point coordinates.
//
// USGS publishes an earthquake catalog at
// https://earthquake.usgs.gov/fdsnws/event/1/query, queryable by date range
// and minimum magnitude, in GeoJSON (tabular pipeline) and QuakeML XML
// (saved verbatim for external XSLT tooling).
//
// # Canonical Schema
//
// Both feeds converge into [Event]. The consumer contract is the shared
// column set: title, link, event_type, alert_level, country, severity_text,
// population_text, alert_score, latitude, longitude, main_time, date_utc.
// Source-specific columns (magnitude, depth_km, episode_id, ...) are
// additive and must never be required by consumers.
//
// Canonical guarantees, applied by [CanonicalizeEvents]:
//
//	event_type, alert_level, country are never empty ("Unknown" fill).
//	date_utc is always main_time truncated to the UTC day.
//	Rows are sorted ascending by main_time; ties keep source order; rows
//	without a main time sort last.
//	Optional numerics are either well-formed or nil, never a placeholder.
//
// # Feed Conventions
//
// GDACS timestamps are RFC-822 strings ("Wed, 17 Dec 2025 15:15:04 GMT").
// The canonical time prefers gdacs:fromdate (event start) and falls back to
// pubDate. USGS timestamps are epoch milliseconds. USGS has no alert level
// of its own; one is derived from magnitude:
//
//	mag >= 7.0 -> Red | mag >= 5.5 -> Orange | otherwise -> Green
//	absent magnitude -> Unknown
//
// The Green bucket deliberately absorbs everything below 5.5, including
// sub-4.0 quakes; this matches the upstream dashboard behavior.
//
// USGS place strings look like "7 km E of Lakatoro, Vanuatu"; the country is
// the substring after the last comma, or the whole string when no comma is
// present.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of source|type|country|time|title,
// so reloading the same feed window yields the same IDs. Downstream consumers
// can upsert idempotently and the Kafka publisher gets stable message keys.
// See [generateID].
package domain
