// Package notify fans a finalized draft out to the recipient roster over the
// requested channels and tallies the outcome per channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

var (
	// ErrNoRecipients means the roster holds no active recipients; a
	// configuration error, rejected before any send attempt.
	ErrNoRecipients = errors.New("no active recipients configured")
	// ErrNoChannels means the request selected no channels.
	ErrNoChannels = errors.New("at least one channel is required")
)

// Message is the per-send payload handed to a transport.
type Message struct {
	Body      string
	Audiences []string
	Channels  []models.Channel
	Threat    *models.ThreatSummary
}

// Transport delivers a message to a single recipient over one channel.
type Transport interface {
	Channel() models.Channel

	// Configured reports whether the transport has all credentials needed
	// for real delivery. An unconfigured transport only simulates.
	Configured() bool

	// Send delivers to one recipient. Returns an error on any failure,
	// including simulated (not-configured) delivery; the dispatcher only
	// reflects it in the tally.
	Send(ctx context.Context, recipient models.Recipient, msg Message) error
}

// Tally counts deliveries for one channel in one dispatch call. Failed is
// always derived from the other two, never tracked separately, so the
// counters cannot drift.
type Tally struct {
	Attempted int
	Succeeded int
}

func (t Tally) Failed() int {
	return t.Attempted - t.Succeeded
}

func (t Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Attempted int `json:"attempted"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}{t.Attempted, t.Succeeded, t.Failed()})
}

// Result reports one dispatch call. The per-channel configured flags are
// authoritative; Simulated is their derived OR for callers that only want
// the coarse answer.
type Result struct {
	Email           Tally `json:"email"`
	SMS             Tally `json:"sms"`
	Simulated       bool  `json:"simulated"`
	EmailConfigured bool  `json:"emailConfigured"`
	SMSConfigured   bool  `json:"smsConfigured"`
}

// Dispatcher fans out to all matching recipients concurrently and waits for
// every attempt to settle. Individual delivery failures never abort the
// batch.
type Dispatcher struct {
	email Transport
	sms   Transport
}

func NewDispatcher(email, sms Transport) *Dispatcher {
	return &Dispatcher{email: email, sms: sms}
}

// EmailConfigured reports whether the email transport has real credentials.
func (d *Dispatcher) EmailConfigured() bool { return d.email.Configured() }

// SMSConfigured reports whether the SMS transport has real credentials.
func (d *Dispatcher) SMSConfigured() bool { return d.sms.Configured() }

// Send dispatches the draft to every active recipient reachable on the
// requested channels. A recipient with both an email address and a phone
// number is attempted on both channels in the same call.
//
// Zero selected channels or zero active recipients is a validation error
// raised before any send; it is distinct from a zero tally.
func (d *Dispatcher) Send(ctx context.Context, draft models.Draft, recipients []models.Recipient, summary *models.ThreatSummary) (Result, error) {
	if len(draft.Channels) == 0 {
		return Result{}, ErrNoChannels
	}

	active := make([]models.Recipient, 0, len(recipients))
	for _, r := range recipients {
		if r.IsActive {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return Result{}, ErrNoRecipients
	}

	msg := Message{
		Body:      draft.Message,
		Audiences: draft.Audiences,
		Channels:  draft.Channels,
		Threat:    summary,
	}

	wantsEmail := containsChannel(draft.Channels, models.ChannelEmail)
	wantsSMS := containsChannel(draft.Channels, models.ChannelSMS)

	var (
		wg             sync.WaitGroup
		emailAttempted atomic.Int64
		emailSucceeded atomic.Int64
		smsAttempted   atomic.Int64
		smsSucceeded   atomic.Int64
	)

	for _, r := range active {
		if wantsEmail && r.Email != "" {
			// Attempts are counted eagerly, before the result is known.
			emailAttempted.Add(1)
			wg.Add(1)
			go func(r models.Recipient) {
				defer wg.Done()
				if err := d.email.Send(ctx, r, msg); err != nil {
					slog.Warn("email delivery failed", "recipient", r.ID, "error", err)
					return
				}
				emailSucceeded.Add(1)
			}(r)
		}
		if wantsSMS && r.Phone != "" {
			smsAttempted.Add(1)
			wg.Add(1)
			go func(r models.Recipient) {
				defer wg.Done()
				if err := d.sms.Send(ctx, r, msg); err != nil {
					slog.Warn("sms delivery failed", "recipient", r.ID, "error", err)
					return
				}
				smsSucceeded.Add(1)
			}(r)
		}
	}
	wg.Wait()

	result := Result{
		Email:           Tally{Attempted: int(emailAttempted.Load()), Succeeded: int(emailSucceeded.Load())},
		SMS:             Tally{Attempted: int(smsAttempted.Load()), Succeeded: int(smsSucceeded.Load())},
		EmailConfigured: d.email.Configured(),
		SMSConfigured:   d.sms.Configured(),
	}
	result.Simulated = !result.EmailConfigured || !result.SMSConfigured

	slog.Info("dispatch complete",
		"email_attempted", result.Email.Attempted,
		"email_succeeded", result.Email.Succeeded,
		"sms_attempted", result.SMS.Attempted,
		"sms_succeeded", result.SMS.Succeeded,
		"simulated", result.Simulated,
	)
	return result, nil
}

func containsChannel(channels []models.Channel, want models.Channel) bool {
	for _, c := range channels {
		if c == want {
			return true
		}
	}
	return false
}
