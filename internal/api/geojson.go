package api

import (
	"github.com/hyperwatch/threat-monitor/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders the threat list as a point feature collection. Threats
// without a mappable location are left out.
func toGeoJSON(threats []models.Threat) FeatureCollection {
	features := make([]Feature, 0, len(threats))

	for _, t := range threats {
		if t.Location.Unmapped() {
			continue
		}

		props := map[string]any{
			"id":          t.ID,
			"source":      t.Source,
			"type":        t.Type,
			"severity":    t.Severity,
			"title":       t.Title,
			"description": t.Description,
			"area":        t.Location.AreaDesc,
			"startTime":   t.StartTime,
		}
		if t.Magnitude != nil {
			props["magnitude"] = *t.Magnitude
		}
		if t.AQI != nil {
			props["aqi"] = *t.AQI
		}
		if t.AffectedCustomers != nil {
			props["affectedCustomers"] = *t.AffectedCustomers
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{t.Location.Lng, t.Location.Lat},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
