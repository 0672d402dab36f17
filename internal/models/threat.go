package models

import (
	"strings"
	"time"
)

// Severity is the unified urgency tier for all threat sources.
// Ordering is advisory < watch < warning < critical; every ranking and
// escalation decision in the system depends on this ordering.
type Severity string

const (
	SeverityAdvisory Severity = "advisory"
	SeverityWatch    Severity = "watch"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Priority maps a severity to its rank. Unknown severities rank below
// advisory so malformed input never outranks real alerts.
func (s Severity) Priority() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 3
	case SeverityWatch:
		return 2
	case SeverityAdvisory:
		return 1
	default:
		return 0
	}
}

// Severities lists all severity tiers from least to most urgent.
func Severities() []Severity {
	return []Severity{SeverityAdvisory, SeverityWatch, SeverityWarning, SeverityCritical}
}

// Source identifies the upstream feed a threat was normalized from.
type Source string

const (
	SourceWeather    Source = "weather"
	SourceSeismic    Source = "seismic"
	SourceAirQuality Source = "airquality"
	SourceOutage     Source = "outage"
)

// Sources lists all known sources in fixed iteration order.
func Sources() []Source {
	return []Source{SourceWeather, SourceSeismic, SourceAirQuality, SourceOutage}
}

// ParseSource resolves a wire value to a known source.
func ParseSource(s string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceWeather:
		return SourceWeather, true
	case SourceSeismic:
		return SourceSeismic, true
	case SourceAirQuality:
		return SourceAirQuality, true
	case SourceOutage:
		return SourceOutage, true
	default:
		return "", false
	}
}

// Location places a threat on the map. Lat==0 && Lng==0 means "no precise
// coordinate", not the Gulf of Guinea; consumers must group such threats by
// area description instead of plotting a point.
type Location struct {
	Lat      float64      `json:"lat"`
	Lng      float64      `json:"lng"`
	AreaDesc string       `json:"areaDesc"`
	Polygon  [][2]float64 `json:"polygon,omitempty"`
}

// Unmapped reports whether the location carries no precise coordinate.
func (l Location) Unmapped() bool {
	return l.Lat == 0 && l.Lng == 0
}

// SimulatedIDPrefix marks operator-created demo threats. They survive
// refreshes client-side until explicitly cleared and dispatch summaries
// label them as drills.
const SimulatedIDPrefix = "sim-"

// Threat is the unified hazard record every source adapter normalizes into.
// After normalization a threat is immutable; the aggregator only
// concatenates, never edits.
type Threat struct {
	ID          string     `json:"id"`
	Source      Source     `json:"source"`
	Type        string     `json:"type"`
	Severity    Severity   `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    Location   `json:"location"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`

	// Source-specific urgency metrics, set only by the owning adapter.
	Magnitude         *float64 `json:"magnitude,omitempty"`
	AQI               *int     `json:"aqi,omitempty"`
	AffectedCustomers *int     `json:"affectedCustomers,omitempty"`

	DetailsURL string      `json:"detailsUrl,omitempty"`
	Raw        *RawPayload `json:"raw,omitempty"`
}

// Simulated reports whether the threat is synthetic rather than from a feed.
func (t Threat) Simulated() bool {
	return strings.HasPrefix(t.ID, SimulatedIDPrefix)
}

// RawPayload is the opaque source-tagged passthrough of the upstream record.
// Exactly one field matching the threat's Source is set, so downstream code
// can branch per source without reparsing free text.
type RawPayload struct {
	Weather    *WeatherAlertRaw   `json:"weather,omitempty"`
	Seismic    *SeismicEventRaw   `json:"seismic,omitempty"`
	AirQuality *AirObservationRaw `json:"airquality,omitempty"`
	Outage     *OutageRaw         `json:"outage,omitempty"`
}

// WeatherAlertRaw preserves the fields of an NWS alert the UI drills into.
type WeatherAlertRaw struct {
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Certainty   string `json:"certainty"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Instruction string `json:"instruction,omitempty"`
}

// SeismicEventRaw preserves the USGS event detail.
type SeismicEventRaw struct {
	Mag    float64 `json:"mag"`
	Place  string  `json:"place"`
	Depth  float64 `json:"depth"`
	Status string  `json:"status"`
	URL    string  `json:"url,omitempty"`
}

// AirObservationRaw preserves the AirNow observation detail.
type AirObservationRaw struct {
	AQI           int    `json:"aqi"`
	Parameter     string `json:"parameter"`
	Category      string `json:"category,omitempty"`
	ReportingArea string `json:"reportingArea"`
	StateCode     string `json:"stateCode"`
	DateObserved  string `json:"dateObserved"`
}

// OutageRaw preserves the outage record detail.
type OutageRaw struct {
	UtilityName          string `json:"utilityName"`
	County               string `json:"county"`
	State                string `json:"state"`
	CustomersAffected    int    `json:"customersAffected"`
	EstimatedRestoration string `json:"estimatedRestoration,omitempty"`
}
