package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

const defaultSeismicURL = "https://earthquake.usgs.gov/fdsnws/event/1"

type seismicResponse struct {
	Features []seismicFeature `json:"features"`
}

type seismicFeature struct {
	ID         string            `json:"id"`
	Properties seismicProperties `json:"properties"`
	Geometry   struct {
		Coordinates []float64 `json:"coordinates"` // [lng, lat, depth]
	} `json:"geometry"`
}

type seismicProperties struct {
	Mag    float64 `json:"mag"`
	Place  string  `json:"place"`
	Time   int64   `json:"time"` // unix millis
	URL    string  `json:"url"`
	Status string  `json:"status"`
	Title  string  `json:"title"`
}

// SeismicAdapter fetches recent USGS earthquakes for a region.
type SeismicAdapter struct {
	baseURL string
	client  *http.Client
	window  time.Duration
	minMag  float64
}

func NewSeismicAdapter(baseURL string, timeout time.Duration) *SeismicAdapter {
	if baseURL == "" {
		baseURL = defaultSeismicURL
	}
	return &SeismicAdapter{
		baseURL: baseURL,
		client:  newHTTPClient(timeout),
		window:  24 * time.Hour,
		minMag:  2.5,
	}
}

func (a *SeismicAdapter) Source() models.Source {
	return models.SourceSeismic
}

func (a *SeismicAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	end := time.Now().UTC()
	start := end.Add(-a.window)

	url := fmt.Sprintf("%s/query?format=geojson&starttime=%s&endtime=%s&minmagnitude=%.1f",
		a.baseURL, start.Format(time.RFC3339), end.Format(time.RFC3339), a.minMag)

	if b, ok := regionBoundsTable[strings.ToUpper(region)]; ok {
		url += fmt.Sprintf("&minlatitude=%g&maxlatitude=%g&minlongitude=%g&maxlongitude=%g",
			b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}

	var data seismicResponse
	if err := getJSON(ctx, a.client, url, nil, &data); err != nil {
		return nil, fmt.Errorf("earthquake fetch failed: %w", err)
	}

	threats := make([]models.Threat, 0, len(data.Features))
	for _, f := range data.Features {
		threats = append(threats, normalizeQuake(f))
	}
	return threats, nil
}

// mapMagnitudeSeverity applies the magnitude bands. Band lower bounds are
// inclusive: exactly 6.0 is critical.
func mapMagnitudeSeverity(mag float64) models.Severity {
	switch {
	case mag >= 6.0:
		return models.SeverityCritical
	case mag >= 5.0:
		return models.SeverityWarning
	case mag >= 4.0:
		return models.SeverityWatch
	default:
		return models.SeverityAdvisory
	}
}

func normalizeQuake(f seismicFeature) models.Threat {
	props := f.Properties

	var lng, lat, depth float64
	if len(f.Geometry.Coordinates) >= 2 {
		lng, lat = f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	}
	if len(f.Geometry.Coordinates) >= 3 {
		depth = f.Geometry.Coordinates[2]
	}

	mag := props.Mag
	return models.Threat{
		ID:          f.ID,
		Source:      models.SourceSeismic,
		Type:        "Earthquake",
		Severity:    mapMagnitudeSeverity(mag),
		Title:       props.Title,
		Description: fmt.Sprintf("Magnitude %.1f earthquake near %s", mag, props.Place),
		Location: models.Location{
			Lat:      lat,
			Lng:      lng,
			AreaDesc: props.Place,
		},
		StartTime:  time.UnixMilli(props.Time).UTC(),
		Magnitude:  &mag,
		DetailsURL: props.URL,
		Raw: &models.RawPayload{
			Seismic: &models.SeismicEventRaw{
				Mag:    mag,
				Place:  props.Place,
				Depth:  depth,
				Status: props.Status,
				URL:    props.URL,
			},
		},
	}
}
