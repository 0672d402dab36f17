// Package aggregate fans out to the configured source adapters, collects
// partial failures and produces the single severity ordering the rest of the
// system depends on.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/rank"
	"github.com/hyperwatch/threat-monitor/internal/sources"
)

// Result is one full snapshot of the threat landscape for a region.
// Threats are ordered most-urgent-first; Errors holds one entry per adapter
// that failed, attributed by source name.
type Result struct {
	Threats []models.Threat
	Errors  []string
}

// Aggregator fetches from all registered adapters concurrently. It holds no
// cache; every FetchAll re-fetches from scratch and callers control polling
// cadence.
type Aggregator struct {
	adapters []sources.Adapter
}

func New(adapters ...sources.Adapter) *Aggregator {
	return &Aggregator{adapters: adapters}
}

// Sources returns the source names of the registered adapters in
// invocation order.
func (a *Aggregator) Sources() []models.Source {
	out := make([]models.Source, len(a.adapters))
	for i, ad := range a.adapters {
		out[i] = ad.Source()
	}
	return out
}

// FetchAll queries the selected adapters concurrently and waits for all of
// them to settle. A failing adapter contributes an empty list and one error
// string; it never aborts its siblings. Selection is by source name; a nil
// or empty selection means all registered adapters.
//
// The merged result is concatenated in adapter-registration order and then
// stably sorted by severity descending, so output ordering is deterministic
// given identical adapter outputs.
func (a *Aggregator) FetchAll(ctx context.Context, region string, selection []models.Source) Result {
	selected := a.selectAdapters(selection)

	// Each goroutine owns exactly one slot; results are merged only after
	// every fetch has settled, so no locking is needed.
	threatSlots := make([][]models.Threat, len(selected))
	errSlots := make([]error, len(selected))

	var wg sync.WaitGroup
	for i, adapter := range selected {
		wg.Add(1)
		go func(i int, adapter sources.Adapter) {
			defer wg.Done()
			threatSlots[i], errSlots[i] = adapter.Fetch(ctx, region)
		}(i, adapter)
	}
	wg.Wait()

	var result Result
	for i, adapter := range selected {
		if err := errSlots[i]; err != nil {
			slog.Warn("source fetch failed", "source", adapter.Source(), "region", region, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", adapter.Source(), err))
			continue
		}
		result.Threats = append(result.Threats, threatSlots[i]...)
	}

	result.Threats = rank.BySeverity(result.Threats)
	return result
}

func (a *Aggregator) selectAdapters(selection []models.Source) []sources.Adapter {
	if len(selection) == 0 {
		return a.adapters
	}

	want := make(map[models.Source]bool, len(selection))
	for _, s := range selection {
		want[s] = true
	}

	var out []sources.Adapter
	for _, adapter := range a.adapters {
		if want[adapter.Source()] {
			out = append(out, adapter)
		}
	}
	return out
}
