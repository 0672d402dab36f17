// Package rank provides pure ordering, filtering and grouping helpers over
// threat sequences. None of the functions mutate their input.
package rank

import (
	"sort"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// BySeverity returns a copy of threats sorted most-urgent-first. The sort is
// stable: ties keep their input order, so repeated sorts of the same slice
// are idempotent and escalation always picks the same "first" critical.
func BySeverity(threats []models.Threat) []models.Threat {
	out := make([]models.Threat, len(threats))
	copy(out, threats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Priority() > out[j].Severity.Priority()
	})
	return out
}

// ByTime returns a copy of threats sorted most-recent-first.
func ByTime(threats []models.Threat) []models.Threat {
	out := make([]models.Threat, len(threats))
	copy(out, threats)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// FilterBySeverity keeps threats whose severity is in the given set,
// preserving order.
func FilterBySeverity(threats []models.Threat, severities ...models.Severity) []models.Threat {
	keep := make(map[models.Severity]bool, len(severities))
	for _, s := range severities {
		keep[s] = true
	}

	var out []models.Threat
	for _, t := range threats {
		if keep[t.Severity] {
			out = append(out, t)
		}
	}
	return out
}

// FilterBySource keeps threats from the given sources, preserving order.
func FilterBySource(threats []models.Threat, sources ...models.Source) []models.Threat {
	keep := make(map[models.Source]bool, len(sources))
	for _, s := range sources {
		keep[s] = true
	}

	var out []models.Threat
	for _, t := range threats {
		if keep[t.Source] {
			out = append(out, t)
		}
	}
	return out
}

// Critical returns the critical-severity threats in order.
func Critical(threats []models.Threat) []models.Threat {
	return FilterBySeverity(threats, models.SeverityCritical)
}

// GroupBySeverity partitions threats into an exhaustive map: every severity
// tier is present as a key, possibly with an empty slice, so consumers can
// iterate models.Severities() without nil checks.
func GroupBySeverity(threats []models.Threat) map[models.Severity][]models.Threat {
	groups := make(map[models.Severity][]models.Threat, len(models.Severities()))
	for _, s := range models.Severities() {
		groups[s] = []models.Threat{}
	}
	for _, t := range threats {
		if _, ok := groups[t.Severity]; !ok {
			groups[t.Severity] = []models.Threat{}
		}
		groups[t.Severity] = append(groups[t.Severity], t)
	}
	return groups
}

// GroupBySource partitions threats into an exhaustive map over all known
// sources.
func GroupBySource(threats []models.Threat) map[models.Source][]models.Threat {
	groups := make(map[models.Source][]models.Threat, len(models.Sources()))
	for _, s := range models.Sources() {
		groups[s] = []models.Threat{}
	}
	for _, t := range threats {
		if _, ok := groups[t.Source]; !ok {
			groups[t.Source] = []models.Threat{}
		}
		groups[t.Source] = append(groups[t.Source], t)
	}
	return groups
}
