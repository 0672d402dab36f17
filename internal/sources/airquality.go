package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

const (
	defaultAirQualityURL = "https://www.airnowapi.org/aq/observation/latLong/current/"

	// Observations below this AQI are routine conditions, not threats.
	minReportableAQI = 51
)

type airObservation struct {
	Latitude      float64 `json:"Latitude"`
	Longitude     float64 `json:"Longitude"`
	AQI           int     `json:"AQI"`
	ParameterName string  `json:"ParameterName"`
	Category      *struct {
		Name   string `json:"Name"`
		Number int    `json:"Number"`
	} `json:"Category"`
	DateObserved  string `json:"DateObserved"`
	ReportingArea string `json:"ReportingArea"`
	StateCode     string `json:"StateCode"`
}

// AirQualityAdapter fetches current AirNow observations around a region's
// center and reports Moderate-or-worse readings as threats. One fetch can
// return several readings for the same area and pollutant; only the highest
// AQI per (area, parameter) survives.
type AirQualityAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAirQualityAdapter(baseURL, apiKey string, timeout time.Duration) *AirQualityAdapter {
	if baseURL == "" {
		baseURL = defaultAirQualityURL
	}
	return &AirQualityAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

func (a *AirQualityAdapter) Source() models.Source {
	return models.SourceAirQuality
}

// Configured reports whether the adapter has an API key. Without one it
// contributes an empty result instead of an error; the feed is optional.
func (a *AirQualityAdapter) Configured() bool {
	return a.apiKey != ""
}

func (a *AirQualityAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	if !a.Configured() {
		return nil, nil
	}

	center, ok := regionCenters[strings.ToUpper(region)]
	if !ok {
		center = regionCenter{Lat: 39, Lng: -98}
	}
	distance := 200
	if !ok {
		distance = 400
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", center.Lat))
	params.Set("longitude", fmt.Sprintf("%g", center.Lng))
	params.Set("date", time.Now().UTC().Format("2006-01-02"))
	params.Set("distance", fmt.Sprintf("%d", distance))
	params.Set("format", "application/json")
	params.Set("API_KEY", a.apiKey)

	var data []airObservation
	reqURL := a.baseURL + "?" + params.Encode()
	if err := getJSON(ctx, a.client, reqURL, map[string]string{"Accept": "application/json"}, &data); err != nil {
		return nil, fmt.Errorf("air quality fetch failed: %w", err)
	}

	threats := make([]models.Threat, 0, len(data))
	for _, obs := range dedupeObservations(data) {
		threats = append(threats, normalizeAirObservation(obs))
	}
	return threats, nil
}

// dedupeObservations keeps the single highest-AQI reading per
// (reporting area, parameter) key and drops everything under the reporting
// floor. Lower duplicate readings are discarded, not averaged.
func dedupeObservations(data []airObservation) []airObservation {
	byKey := make(map[string]airObservation)
	var order []string
	for _, obs := range data {
		if obs.AQI < minReportableAQI {
			continue
		}
		key := obs.ReportingArea + "-" + obs.ParameterName
		existing, seen := byKey[key]
		if !seen {
			order = append(order, key)
		}
		if !seen || obs.AQI > existing.AQI {
			byKey[key] = obs
		}
	}

	out := make([]airObservation, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

// mapAQISeverity applies the AQI bands with inclusive lower bounds:
// exactly 201 is critical, exactly 151 is warning, exactly 101 is watch.
func mapAQISeverity(aqi int) models.Severity {
	switch {
	case aqi >= 201:
		return models.SeverityCritical
	case aqi >= 151:
		return models.SeverityWarning
	case aqi >= 101:
		return models.SeverityWatch
	default:
		return models.SeverityAdvisory
	}
}

func normalizeAirObservation(obs airObservation) models.Threat {
	aqi := obs.AQI

	category := "Moderate or worse"
	if obs.Category != nil && obs.Category.Name != "" {
		category = obs.Category.Name
	}

	raw := &models.AirObservationRaw{
		AQI:           obs.AQI,
		Parameter:     obs.ParameterName,
		ReportingArea: obs.ReportingArea,
		StateCode:     obs.StateCode,
		DateObserved:  obs.DateObserved,
	}
	if obs.Category != nil {
		raw.Category = obs.Category.Name
	}

	t := models.Threat{
		ID:       fmt.Sprintf("air-%s-%s-%s", obs.ReportingArea, obs.ParameterName, obs.DateObserved),
		Source:   models.SourceAirQuality,
		Type:     "Air Quality Alert",
		Severity: mapAQISeverity(aqi),
		Title:    fmt.Sprintf("Air Quality - %s (%s)", obs.ReportingArea, obs.ParameterName),
		Description: fmt.Sprintf("AQI %d - %s. %s. Limit prolonged outdoor exertion.",
			aqi, category, obs.ParameterName),
		Location: models.Location{
			Lat:      obs.Latitude,
			Lng:      obs.Longitude,
			AreaDesc: fmt.Sprintf("%s, %s", obs.ReportingArea, obs.StateCode),
		},
		AQI: &aqi,
		Raw: &models.RawPayload{AirQuality: raw},
	}

	if ts, err := time.Parse("2006-01-02", strings.TrimSpace(obs.DateObserved)); err == nil {
		t.StartTime = ts.Add(12 * time.Hour)
	}
	return t
}
