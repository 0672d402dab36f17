package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/hyperwatch/threat-monitor/internal/aggregate"
	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/sources"
	"github.com/hyperwatch/threat-monitor/internal/tracker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubAdapter struct {
	source  models.Source
	threats []models.Threat
}

func (s *stubAdapter) Source() models.Source { return s.source }

func (s *stubAdapter) Fetch(ctx context.Context, region string) ([]models.Threat, error) {
	return s.threats, nil
}

var _ sources.Adapter = (*stubAdapter)(nil)

type recordingObserver struct {
	mu        sync.Mutex
	snapshots [][]models.Threat
}

func (r *recordingObserver) Observe(ctx context.Context, snapshot []models.Threat) tracker.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	for _, th := range snapshot {
		if th.Severity == models.SeverityCritical {
			return tracker.StateUnacknowledged
		}
	}
	return tracker.StateQuiescent
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recordingObserver) last() []models.Threat {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestMonitor_StartStop(t *testing.T) {
	agg := aggregate.New(&stubAdapter{source: models.SourceWeather})
	m := New(agg, nil, NewBroadcaster(), "CA", 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	deadline := time.After(2 * time.Second)
	for m.Latest().Timestamp.IsZero() {
		select {
		case <-deadline:
			t.Fatal("first poll never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	m.Stop()
}

func TestMonitor_SnapshotBroadcast(t *testing.T) {
	agg := aggregate.New(&stubAdapter{
		source: models.SourceSeismic,
		threats: []models.Threat{
			{ID: "q1", Source: models.SourceSeismic, Severity: models.SeverityCritical},
			{ID: "q2", Source: models.SourceSeismic, Severity: models.SeverityWatch},
		},
	})
	b := NewBroadcaster()
	obs := &recordingObserver{}
	m := New(agg, obs, b, "CA", time.Hour)

	_, ch := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	select {
	case snap := <-ch:
		if len(snap.Threats) != 2 {
			t.Fatalf("expected 2 threats in snapshot, got %d", len(snap.Threats))
		}
		if snap.Threats[0].ID != "q1" {
			t.Errorf("expected critical ranked first, got %s", snap.Threats[0].ID)
		}
		if snap.State != tracker.StateUnacknowledged {
			t.Errorf("expected unacknowledged state, got %s", snap.State)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot broadcast")
	}

	cancel()
	m.Stop()
}

func TestMonitor_PinAndClear(t *testing.T) {
	agg := aggregate.New(&stubAdapter{source: models.SourceWeather})
	obs := &recordingObserver{}
	m := New(agg, obs, nil, "TX", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	deadline := time.After(2 * time.Second)
	for m.Latest().Timestamp.IsZero() {
		select {
		case <-deadline:
			t.Fatal("first poll never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sim := sources.SimulatedOutage("TX", "Travis", 25000, 30.27, -97.74)
	m.Pin(ctx, sim)

	latest := m.Latest()
	if len(latest.Threats) != 1 || latest.Threats[0].ID != sim.ID {
		t.Fatalf("expected pinned threat in snapshot, got %+v", latest.Threats)
	}
	if latest.State != tracker.StateUnacknowledged {
		t.Errorf("expected pin to reach the observer, state %s", latest.State)
	}

	if n := m.ClearPinned(ctx); n != 1 {
		t.Fatalf("expected 1 cleared, got %d", n)
	}
	if got := len(m.Latest().Threats); got != 0 {
		t.Errorf("expected empty snapshot after clear, got %d threats", got)
	}

	cancel()
	m.Stop()
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Unsubscribe(id)
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
	if _, open := <-ch; open {
		t.Error("expected channel closed after unsubscribe")
	}
}

func TestBroadcaster_SkipsSlowSubscribers(t *testing.T) {
	b := NewBroadcaster()
	_, ch := b.Subscribe()
	defer b.Close()

	// Fill the buffer past capacity; Broadcast must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			b.Broadcast(Snapshot{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
	if len(ch) == 0 {
		t.Error("expected buffered snapshots")
	}
}
