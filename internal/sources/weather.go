package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

const (
	defaultWeatherURL = "https://api.weather.gov"
	weatherUserAgent  = "hyperwatch-threat-monitor/1.0"
	weatherDetailsURL = "https://www.weather.gov/alerts"
)

type weatherResponse struct {
	Features []weatherAlert `json:"features"`
}

type weatherAlert struct {
	ID       string `json:"id"`
	Geometry *struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties weatherProperties `json:"properties"`
}

type weatherProperties struct {
	ID          string `json:"id"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Certainty   string `json:"certainty"`
	Urgency     string `json:"urgency"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
	AreaDesc    string `json:"areaDesc"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
}

// WeatherAdapter fetches active NWS alerts for a region.
type WeatherAdapter struct {
	baseURL string
	client  *http.Client
}

func NewWeatherAdapter(baseURL string, timeout time.Duration) *WeatherAdapter {
	if baseURL == "" {
		baseURL = defaultWeatherURL
	}
	return &WeatherAdapter{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
	}
}

func (a *WeatherAdapter) Source() models.Source {
	return models.SourceWeather
}

func (a *WeatherAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	url := fmt.Sprintf("%s/alerts/active?area=%s", a.baseURL, strings.ToUpper(region))

	var data weatherResponse
	headers := map[string]string{"User-Agent": weatherUserAgent}
	if err := getJSON(ctx, a.client, url, headers, &data); err != nil {
		return nil, fmt.Errorf("weather alerts fetch failed: %w", err)
	}

	threats := make([]models.Threat, 0, len(data.Features))
	for _, alert := range data.Features {
		if alert.Properties.Event == "" {
			continue
		}
		threats = append(threats, normalizeWeatherAlert(alert))
	}
	return threats, nil
}

// mapWeatherSeverity maps the NWS categorical severity onto the unified
// tiers. Anything below Moderate (Minor, Unknown) is an advisory.
func mapWeatherSeverity(nws string) models.Severity {
	switch strings.ToLower(nws) {
	case "extreme":
		return models.SeverityCritical
	case "severe":
		return models.SeverityWarning
	case "moderate":
		return models.SeverityWatch
	default:
		return models.SeverityAdvisory
	}
}

func normalizeWeatherAlert(alert weatherAlert) models.Threat {
	props := alert.Properties

	loc := models.Location{AreaDesc: props.AreaDesc}
	if alert.Geometry != nil && len(alert.Geometry.Coordinates) > 0 {
		ring := alert.Geometry.Coordinates[0]
		loc.Lat, loc.Lng = polygonCenter(ring)
		// Upstream rings are [lng, lat]; map consumers expect [lat, lng].
		loc.Polygon = make([][2]float64, len(ring))
		for i, p := range ring {
			loc.Polygon[i] = [2]float64{p[1], p[0]}
		}
	}

	id := props.ID
	if id == "" {
		id = alert.ID
	}

	title := props.Headline
	if title == "" {
		title = props.Event
	}

	t := models.Threat{
		ID:          id,
		Source:      models.SourceWeather,
		Type:        props.Event,
		Severity:    mapWeatherSeverity(props.Severity),
		Title:       title,
		Description: props.Description,
		Location:    loc,
		DetailsURL:  weatherDetailsURL,
		Raw: &models.RawPayload{
			Weather: &models.WeatherAlertRaw{
				Event:       props.Event,
				Severity:    props.Severity,
				Certainty:   props.Certainty,
				Urgency:     props.Urgency,
				Headline:    props.Headline,
				Instruction: props.Instruction,
			},
		},
	}

	if ts, err := time.Parse(time.RFC3339, props.Effective); err == nil {
		t.StartTime = ts
	}
	if ts, err := time.Parse(time.RFC3339, props.Expires); err == nil {
		t.EndTime = &ts
	}
	return t
}

// polygonCenter averages the ring's vertices. An empty ring yields the
// unmapped sentinel (0, 0).
func polygonCenter(ring [][2]float64) (lat, lng float64) {
	if len(ring) == 0 {
		return 0, 0
	}
	var sumLat, sumLng float64
	for _, p := range ring {
		sumLng += p[0]
		sumLat += p[1]
	}
	n := float64(len(ring))
	return sumLat / n, sumLng / n
}
