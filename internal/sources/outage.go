package sources

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// outageRecord is the native shape of an outage report before normalization.
type outageRecord struct {
	ID                   string
	UtilityName          string
	County               string
	State                string
	CustomersAffected    int
	Lat, Lng             float64
	ReportedAt           time.Time
	EstimatedRestoration string
}

// OutageAdapter reports power outages. There is no single national outage
// feed, so the adapter serves curated sample data per region, optionally
// padded with synthetic outages for demo deployments. Synthetic generation
// is an explicit constructor parameter, not process-global state.
type OutageAdapter struct {
	synthetic bool
	now       func() time.Time
}

func NewOutageAdapter(synthetic bool) *OutageAdapter {
	return &OutageAdapter{synthetic: synthetic, now: time.Now}
}

func (a *OutageAdapter) Source() models.Source {
	return models.SourceOutage
}

func (a *OutageAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	upper := strings.ToUpper(region)
	records := a.sampleOutages(upper)
	if len(records) == 0 && a.synthetic {
		records = a.syntheticOutages(upper, rand.Intn(3))
	}

	threats := make([]models.Threat, 0, len(records))
	for _, rec := range records {
		threats = append(threats, normalizeOutage(rec))
	}
	return threats, nil
}

// SimulatedOutage builds an operator-created demo outage threat. Its id
// carries the simulated prefix so downstream consumers can label it.
func SimulatedOutage(state, county string, customers int, lat, lng float64) models.Threat {
	return normalizeOutage(outageRecord{
		ID:                fmt.Sprintf("%soutage-%d", models.SimulatedIDPrefix, time.Now().UnixNano()),
		UtilityName:       "Simulated Utility",
		County:            county,
		State:             state,
		CustomersAffected: customers,
		Lat:               lat,
		Lng:               lng,
		ReportedAt:        time.Now(),
	})
}

// mapCustomersSeverity applies the affected-customer bands with inclusive
// lower bounds: exactly 10000 is critical.
func mapCustomersSeverity(customers int) models.Severity {
	switch {
	case customers >= 10000:
		return models.SeverityCritical
	case customers >= 1000:
		return models.SeverityWarning
	case customers >= 100:
		return models.SeverityWatch
	default:
		return models.SeverityAdvisory
	}
}

func normalizeOutage(rec outageRecord) models.Threat {
	customers := rec.CustomersAffected

	desc := fmt.Sprintf("%d customers affected. Utility: %s", customers, rec.UtilityName)
	if rec.EstimatedRestoration != "" {
		desc += ". Estimated restoration: " + rec.EstimatedRestoration
	}

	return models.Threat{
		ID:          rec.ID,
		Source:      models.SourceOutage,
		Type:        "Power Outage",
		Severity:    mapCustomersSeverity(customers),
		Title:       fmt.Sprintf("Power Outage - %s, %s", rec.County, rec.State),
		Description: desc,
		Location: models.Location{
			Lat:      rec.Lat,
			Lng:      rec.Lng,
			AreaDesc: fmt.Sprintf("%s County, %s", rec.County, rec.State),
		},
		StartTime:         rec.ReportedAt,
		AffectedCustomers: &customers,
		Raw: &models.RawPayload{
			Outage: &models.OutageRaw{
				UtilityName:          rec.UtilityName,
				County:               rec.County,
				State:                rec.State,
				CustomersAffected:    customers,
				EstimatedRestoration: rec.EstimatedRestoration,
			},
		},
	}
}

func (a *OutageAdapter) sampleOutages(state string) []outageRecord {
	now := a.now()
	switch state {
	case "CA":
		return []outageRecord{
			{
				ID: "outage-ca-1", UtilityName: "Pacific Gas & Electric",
				County: "Los Angeles", State: "CA", CustomersAffected: 15000,
				Lat: 34.0522, Lng: -118.2437,
				ReportedAt:           now.Add(-2 * time.Hour),
				EstimatedRestoration: now.Add(4 * time.Hour).Format(time.Kitchen),
			},
			{
				ID: "outage-ca-2", UtilityName: "San Diego Gas & Electric",
				County: "San Diego", State: "CA", CustomersAffected: 3500,
				Lat: 32.7157, Lng: -117.1611,
				ReportedAt: now.Add(-1 * time.Hour),
			},
		}
	case "TX":
		return []outageRecord{
			{
				ID: "outage-tx-1", UtilityName: "Oncor Electric",
				County: "Dallas", State: "TX", CustomersAffected: 8500,
				Lat: 32.7767, Lng: -96.797,
				ReportedAt:           now.Add(-3 * time.Hour),
				EstimatedRestoration: now.Add(2 * time.Hour).Format(time.Kitchen),
			},
			{
				ID: "outage-tx-2", UtilityName: "CenterPoint Energy",
				County: "Harris", State: "TX", CustomersAffected: 12000,
				Lat: 29.7604, Lng: -95.3698,
				ReportedAt: now.Add(-30 * time.Minute),
			},
		}
	case "FL":
		return []outageRecord{
			{
				ID: "outage-fl-1", UtilityName: "Florida Power & Light",
				County: "Miami-Dade", State: "FL", CustomersAffected: 25000,
				Lat: 25.7617, Lng: -80.1918,
				ReportedAt: now.Add(-4 * time.Hour),
			},
		}
	case "NY":
		return []outageRecord{
			{
				ID: "outage-ny-1", UtilityName: "Con Edison",
				County: "New York", State: "NY", CustomersAffected: 5000,
				Lat: 40.7128, Lng: -74.006,
				ReportedAt:           now.Add(-45 * time.Minute),
				EstimatedRestoration: now.Add(3 * time.Hour).Format(time.Kitchen),
			},
		}
	default:
		return nil
	}
}

func (a *OutageAdapter) syntheticOutages(state string, count int) []outageRecord {
	utilities := []string{"Regional Power Co.", "State Electric", "Municipal Utility"}
	counties := []string{"Central", "Northern", "Southern", "Eastern", "Western"}

	now := a.now()
	out := make([]outageRecord, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, outageRecord{
			ID:                fmt.Sprintf("outage-%s-%d-%d", strings.ToLower(state), now.UnixNano(), i),
			UtilityName:       utilities[rand.Intn(len(utilities))],
			County:            counties[rand.Intn(len(counties))],
			State:             state,
			CustomersAffected: rand.Intn(10000) + 100,
			Lat:               38 + rand.Float64()*10 - 5,
			Lng:               -100 + rand.Float64()*20 - 10,
			ReportedAt:        now.Add(-time.Duration(rand.Intn(360)) * time.Minute),
		})
	}
	return out
}
