package drafter

import (
	"fmt"
	"strings"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// Fallback builds the deterministic templated draft derived purely from the
// threat. Messages stay under the 160-character SMS budget for the default
// cases; audiences and channels are never empty.
func Fallback(threat models.Threat) models.Draft {
	return models.Draft{
		Message:   fallbackMessage(threat),
		Audiences: fallbackAudiences(threat),
		Channels:  fallbackChannels(threat.Severity),
	}
}

func fallbackMessage(threat models.Threat) string {
	location := shortArea(threat.Location.AreaDesc)

	switch threat.Source {
	case models.SourceWeather:
		return fmt.Sprintf("%s: %s for %s. Monitor local news for updates. Stay safe.",
			strings.ToUpper(string(threat.Severity)), threat.Type, location)
	case models.SourceSeismic:
		mag := "?"
		if threat.Magnitude != nil {
			mag = fmt.Sprintf("%.1f", *threat.Magnitude)
		}
		return fmt.Sprintf("EARTHQUAKE ALERT: M%s earthquake reported near %s. Check for damage. Be prepared for aftershocks.",
			mag, location)
	case models.SourceAirQuality:
		aqi := "elevated"
		if threat.AQI != nil {
			aqi = fmt.Sprintf("%d", *threat.AQI)
		}
		return fmt.Sprintf("AIR QUALITY ALERT: AQI %s in %s. Limit outdoor exposure. Check air quality updates.",
			aqi, location)
	case models.SourceOutage:
		customers := "Multiple"
		if threat.AffectedCustomers != nil {
			customers = fmt.Sprintf("%d", *threat.AffectedCustomers)
		}
		return fmt.Sprintf("POWER OUTAGE: %s customers affected in %s. Check on neighbors. Report downed lines.",
			customers, location)
	default:
		return fmt.Sprintf("ALERT: %s in %s. Follow official guidance.", threat.Type, location)
	}
}

func fallbackAudiences(threat models.Threat) []string {
	base := []string{"Residents of " + shortArea(threat.Location.AreaDesc)}

	switch threat.Source {
	case models.SourceWeather:
		return append(base,
			"Schools and educational facilities",
			"Emergency response teams",
			"Healthcare facilities",
			"Public transit operators",
		)
	case models.SourceSeismic:
		return append(base,
			"Building managers",
			"Utility companies",
			"Search and rescue teams",
			"Hospital emergency departments",
		)
	case models.SourceAirQuality:
		return append(base,
			"Schools and outdoor facilities",
			"Healthcare facilities",
			"Outdoor workers",
			"Sensitive groups (respiratory, elderly)",
		)
	case models.SourceOutage:
		return append(base,
			"Utility customers",
			"Medical equipment users",
			"Emergency response teams",
		)
	default:
		return base
	}
}

// fallbackChannels recommends channels by urgency: advisories are email
// only, everything above also goes to SMS.
func fallbackChannels(severity models.Severity) []models.Channel {
	if severity == models.SeverityAdvisory {
		return []models.Channel{models.ChannelEmail}
	}
	return []models.Channel{models.ChannelEmail, models.ChannelSMS}
}

// shortArea keeps the first comma-separated segment of an area description;
// "Fresno, CA" reads better as "Fresno" inside a 160-character message.
func shortArea(areaDesc string) string {
	if areaDesc == "" {
		return "the affected area"
	}
	if i := strings.Index(areaDesc, ","); i > 0 {
		return areaDesc[:i]
	}
	return areaDesc
}
