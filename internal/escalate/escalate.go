// Package escalate dispatches an automatic notification once per critical
// episode. The coordinator sits behind the tracker: every snapshot passes
// through it after aggregation, and on the first unacknowledged critical it
// drafts a message and fans it out. A latch then holds until the tracker
// returns to quiescent, so an episode never triggers a second dispatch, not
// even when its critical set changes or the first dispatch fails.
package escalate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/notify"
	"github.com/hyperwatch/threat-monitor/internal/tracker"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock swaps the package clock. Tests only.
func SetClock(c clockwork.Clock) { clock = c }

// Drafter produces the outgoing message for a threat.
type Drafter interface {
	Draft(ctx context.Context, threat models.Threat, extra string) (models.Draft, bool)
}

// Dispatcher fans a draft out to recipients.
type Dispatcher interface {
	Send(ctx context.Context, draft models.Draft, recipients []models.Recipient, summary *models.ThreatSummary) (notify.Result, error)
}

// Roster supplies the recipients for automatic dispatch.
type Roster interface {
	List(ctx context.Context) ([]models.Recipient, error)
}

// Record describes one automatic dispatch.
type Record struct {
	ThreatID   string          `json:"threatId"`
	ThreatType string          `json:"threatType"`
	Severity   models.Severity `json:"severity"`
	SentAt     time.Time       `json:"sentAt,omitzero"`
	Fallback   bool            `json:"fallback"`
	Result     notify.Result   `json:"result"`
	Error      string          `json:"error,omitempty"`
}

// Coordinator owns the tracker and the at-most-once dispatch latch.
// Safe for concurrent use.
type Coordinator struct {
	tracker    *tracker.Tracker
	drafter    Drafter
	dispatcher Dispatcher
	roster     Roster
	enabled    bool

	mu      sync.Mutex
	latched bool
	history []Record
}

func New(t *tracker.Tracker, d Drafter, n Dispatcher, r Roster, enabled bool) *Coordinator {
	return &Coordinator{
		tracker:    t,
		drafter:    d,
		dispatcher: n,
		roster:     r,
		enabled:    enabled,
	}
}

// Observe feeds a snapshot through the tracker and, when auto-escalation is
// enabled, dispatches on the first unacknowledged critical of an episode.
// Returns the tracker state after the snapshot.
func (c *Coordinator) Observe(ctx context.Context, snapshot []models.Threat) tracker.State {
	state := c.tracker.Observe(snapshot)

	c.mu.Lock()
	if state == tracker.StateQuiescent {
		// Episode over; re-arm for the next one.
		c.latched = false
		c.mu.Unlock()
		return state
	}
	if !c.enabled || c.latched || state != tracker.StateUnacknowledged {
		c.mu.Unlock()
		return state
	}
	// Latch before dispatching: the attempt is what the episode gets,
	// whether or not delivery succeeds.
	c.latched = true
	c.mu.Unlock()

	critical := c.tracker.Critical()
	if len(critical) == 0 {
		return state
	}
	c.dispatch(ctx, critical[0])
	return state
}

func (c *Coordinator) dispatch(ctx context.Context, threat models.Threat) {
	rec := Record{
		ThreatID:   threat.ID,
		ThreatType: threat.Type,
		Severity:   threat.Severity,
	}

	recipients, err := c.roster.List(ctx)
	if err != nil {
		slog.Error("auto-escalation roster lookup failed", "threat", threat.ID, "error", err)
		recipients = nil
	}

	draft, fallback := c.drafter.Draft(ctx, threat, "")
	rec.Fallback = fallback

	// The automatic send of an episode always goes out on both channels,
	// whatever the drafter recommends; it is the one chance to reach
	// everyone before an operator steps in.
	draft.Channels = []models.Channel{models.ChannelEmail, models.ChannelSMS}

	summary := &models.ThreatSummary{
		ID:       threat.ID,
		Type:     threat.Type,
		Severity: string(threat.Severity),
		Region:   threat.Location.AreaDesc,
		Source:   string(threat.Source),
	}
	result, err := c.dispatcher.Send(ctx, draft, recipients, summary)
	rec.Result = result
	if err != nil {
		// The episode stays not-auto-sent; the latch still holds, so there
		// is no retry until the episode clears.
		rec.Error = err.Error()
		slog.Error("auto-escalation dispatch failed", "threat", threat.ID, "error", err)
	} else {
		rec.SentAt = clock.Now().UTC()
		slog.Info("auto-escalation dispatched",
			"threat", threat.ID,
			"severity", threat.Severity,
			"emailAttempted", result.Email.Attempted,
			"smsAttempted", result.SMS.Attempted,
			"simulated", result.Simulated)
	}

	c.mu.Lock()
	c.history = append(c.history, rec)
	c.mu.Unlock()
}

// Acknowledge acknowledges the current critical set on the tracker.
func (c *Coordinator) Acknowledge() tracker.State {
	c.tracker.Acknowledge()
	return c.tracker.State()
}

// State returns the tracker's current state.
func (c *Coordinator) State() tracker.State {
	return c.tracker.State()
}

// History returns a copy of all dispatch records, oldest first.
func (c *Coordinator) History() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.history))
	copy(out, c.history)
	return out
}
