// Package tracker watches the live threat snapshot for critical-severity
// threats and tracks acknowledgment per critical episode.
//
// An episode spans from the first appearance of an unacknowledged critical
// threat until a snapshot with zero critical threats. On that quiescent
// transition the acknowledged-id set is cleared, so a later, distinct
// episode is never suppressed by stale acknowledgments.
package tracker

import (
	"log/slog"
	"sync"

	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/rank"
)

// State is the tracker's position in the episode lifecycle.
type State string

const (
	// StateQuiescent: no critical threats present.
	StateQuiescent State = "quiescent"
	// StateUnacknowledged: at least one currently-present critical threat
	// id has never been acknowledged.
	StateUnacknowledged State = "unacknowledged"
	// StateAcknowledged: critical threats present, all of their ids
	// acknowledged.
	StateAcknowledged State = "acknowledged"
)

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	state    State
	acked    map[string]bool
	critical []models.Threat
}

func New() *Tracker {
	return &Tracker{
		state: StateQuiescent,
		acked: make(map[string]bool),
	}
}

// Observe feeds the tracker a fresh threat snapshot and returns the
// resulting state. Snapshot order is preserved in Critical(), so the
// aggregator's ordering decides which critical threat is "first".
func (t *Tracker) Observe(snapshot []models.Threat) State {
	critical := rank.Critical(snapshot)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.critical = critical

	if len(critical) == 0 {
		if t.state != StateQuiescent {
			slog.Info("critical episode ended, clearing acknowledgments", "acknowledged", len(t.acked))
		}
		t.state = StateQuiescent
		t.acked = make(map[string]bool)
		return t.state
	}

	for _, c := range critical {
		if !t.acked[c.ID] {
			if t.state != StateUnacknowledged {
				slog.Info("unacknowledged critical threat", "id", c.ID, "type", c.Type)
			}
			t.state = StateUnacknowledged
			return t.state
		}
	}

	t.state = StateAcknowledged
	return t.state
}

// Acknowledge records every currently-present critical threat id as seen.
// A no-op while quiescent.
func (t *Tracker) Acknowledge() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.critical) == 0 {
		return
	}
	for _, c := range t.critical {
		t.acked[c.ID] = true
	}
	t.state = StateAcknowledged
}

// State returns the state as of the last Observe.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Unacknowledged reports whether an unacknowledged critical threat is
// present right now.
func (t *Tracker) Unacknowledged() bool {
	return t.State() == StateUnacknowledged
}

// Critical returns the currently-present critical threats in snapshot order.
func (t *Tracker) Critical() []models.Threat {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Threat, len(t.critical))
	copy(out, t.critical)
	return out
}
