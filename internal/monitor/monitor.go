// Package monitor runs the background poll loop for the home region. Each
// cycle aggregates all sources, folds in any pinned simulated threats, feeds
// the result through the escalation coordinator and broadcasts the snapshot.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperwatch/threat-monitor/internal/aggregate"
	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/rank"
	"github.com/hyperwatch/threat-monitor/internal/tracker"
)

// Snapshot is one completed poll cycle.
type Snapshot struct {
	Threats   []models.Threat `json:"threats"`
	Errors    []string        `json:"errors,omitempty"`
	State     tracker.State   `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

// Observer consumes each snapshot's threat list. Implemented by the
// escalation coordinator.
type Observer interface {
	Observe(ctx context.Context, snapshot []models.Threat) tracker.State
}

type Monitor struct {
	agg         *aggregate.Aggregator
	observer    Observer
	broadcaster *Broadcaster
	region      string
	interval    time.Duration

	mu      sync.Mutex
	fetched []models.Threat
	errs    []string
	pinned  []models.Threat
	latest  Snapshot

	wg sync.WaitGroup
}

func New(agg *aggregate.Aggregator, observer Observer, broadcaster *Broadcaster, region string, interval time.Duration) *Monitor {
	return &Monitor{
		agg:         agg,
		observer:    observer,
		broadcaster: broadcaster,
		region:      region,
		interval:    interval,
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.runPoller(ctx)
}

func (m *Monitor) runPoller(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting monitor poller", "region", m.region, "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor poller shutting down")
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	slog.Debug("polling", "region", m.region)

	result := m.agg.FetchAll(ctx, m.region, nil)

	m.mu.Lock()
	m.fetched = result.Threats
	m.errs = result.Errors
	m.mu.Unlock()

	m.publish(ctx)
	slog.Debug("poll complete", "region", m.region, "count", len(result.Threats), "errors", len(result.Errors))
}

// publish recomputes the snapshot from the last fetch plus pinned threats,
// runs it through the observer and broadcasts it.
func (m *Monitor) publish(ctx context.Context) {
	m.mu.Lock()
	merged := make([]models.Threat, 0, len(m.fetched)+len(m.pinned))
	merged = append(merged, m.fetched...)
	merged = append(merged, m.pinned...)
	errs := m.errs
	m.mu.Unlock()

	merged = rank.BySeverity(merged)

	state := tracker.StateQuiescent
	if m.observer != nil {
		state = m.observer.Observe(ctx, merged)
	}

	snap := Snapshot{
		Threats:   merged,
		Errors:    errs,
		State:     state,
		Timestamp: time.Now().UTC(),
	}

	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	if m.broadcaster != nil {
		m.broadcaster.Broadcast(snap)
	}
}

// Pin injects a simulated threat that persists across poll cycles until
// cleared, and republishes immediately so trackers react without waiting for
// the next tick.
func (m *Monitor) Pin(ctx context.Context, threat models.Threat) {
	m.mu.Lock()
	m.pinned = append(m.pinned, threat)
	m.mu.Unlock()

	slog.Info("pinned simulated threat", "id", threat.ID, "severity", threat.Severity)
	m.publish(ctx)
}

// ClearPinned drops all pinned threats and republishes. Returns how many
// were cleared.
func (m *Monitor) ClearPinned(ctx context.Context) int {
	m.mu.Lock()
	n := len(m.pinned)
	m.pinned = nil
	m.mu.Unlock()

	if n > 0 {
		slog.Info("cleared pinned threats", "count", n)
		m.publish(ctx)
	}
	return n
}

// Latest returns the most recent snapshot. Zero value before the first poll
// completes.
func (m *Monitor) Latest() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

func (m *Monitor) Stop() {
	m.wg.Wait()
	if m.broadcaster != nil {
		m.broadcaster.Close()
	}
	slog.Info("monitor stopped")
}
