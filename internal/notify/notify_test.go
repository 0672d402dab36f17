package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTransport implements Transport for testing.
type fakeTransport struct {
	channel    models.Channel
	configured bool
	failFor    map[string]bool // recipient id -> force failure

	mu   sync.Mutex
	sent []string
}

func (f *fakeTransport) Channel() models.Channel { return f.channel }
func (f *fakeTransport) Configured() bool        { return f.configured }

func (f *fakeTransport) Send(ctx context.Context, r models.Recipient, msg Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, r.ID)
	f.mu.Unlock()

	if f.failFor[r.ID] {
		return errors.New("provider rejected")
	}
	return nil
}

func recipient(id, email, phone string, active bool) models.Recipient {
	return models.Recipient{ID: id, FullName: id, Email: email, Phone: phone, IsActive: active}
}

func bothChannels() models.Draft {
	return models.Draft{
		Message:  "Seek shelter immediately.",
		Channels: []models.Channel{models.ChannelEmail, models.ChannelSMS},
	}
}

func TestSend_PerChannelFiltering(t *testing.T) {
	email := &fakeTransport{channel: models.ChannelEmail, configured: true}
	sms := &fakeTransport{channel: models.ChannelSMS, configured: true}
	d := NewDispatcher(email, sms)

	recipients := []models.Recipient{
		recipient("r1", "a@example.com", "", true),
		recipient("r2", "b@example.com", "", true),
		recipient("r3", "", "+15550100", true),
	}

	result, err := d.Send(context.Background(), bothChannels(), recipients, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Email.Attempted)
	assert.Equal(t, 2, result.Email.Succeeded)
	assert.Equal(t, 0, result.Email.Failed())
	assert.Equal(t, 1, result.SMS.Attempted)
	assert.Equal(t, 1, result.SMS.Succeeded)
	assert.Equal(t, 0, result.SMS.Failed())
	assert.False(t, result.Simulated)
}

func TestSend_RecipientOnBothChannels(t *testing.T) {
	email := &fakeTransport{channel: models.ChannelEmail, configured: true}
	sms := &fakeTransport{channel: models.ChannelSMS, configured: true}
	d := NewDispatcher(email, sms)

	recipients := []models.Recipient{
		recipient("r1", "a@example.com", "+15550100", true),
	}

	result, err := d.Send(context.Background(), bothChannels(), recipients, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Email.Attempted)
	assert.Equal(t, 1, result.SMS.Attempted)
}

func TestSend_FailedIsDerived(t *testing.T) {
	email := &fakeTransport{
		channel:    models.ChannelEmail,
		configured: true,
		failFor:    map[string]bool{"r2": true},
	}
	sms := &fakeTransport{channel: models.ChannelSMS, configured: true}
	d := NewDispatcher(email, sms)

	recipients := []models.Recipient{
		recipient("r1", "a@example.com", "", true),
		recipient("r2", "b@example.com", "", true),
	}

	result, err := d.Send(context.Background(), bothChannels(), recipients, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Email.Attempted)
	assert.Equal(t, 1, result.Email.Succeeded)
	assert.Equal(t, 1, result.Email.Failed())
}

func TestSend_ZeroActiveRecipientsIsConfigError(t *testing.T) {
	d := NewDispatcher(
		&fakeTransport{channel: models.ChannelEmail, configured: true},
		&fakeTransport{channel: models.ChannelSMS, configured: true},
	)

	recipients := []models.Recipient{
		recipient("r1", "a@example.com", "", false), // inactive
	}

	_, err := d.Send(context.Background(), bothChannels(), recipients, nil)
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestSend_ZeroChannelsRejected(t *testing.T) {
	d := NewDispatcher(
		&fakeTransport{channel: models.ChannelEmail, configured: true},
		&fakeTransport{channel: models.ChannelSMS, configured: true},
	)

	draft := models.Draft{Message: "hi"}
	_, err := d.Send(context.Background(), draft, []models.Recipient{recipient("r1", "a@example.com", "", true)}, nil)
	require.ErrorIs(t, err, ErrNoChannels)
}

func TestSend_MixedConfigurationReportsSimulated(t *testing.T) {
	email := &fakeTransport{channel: models.ChannelEmail, configured: true}
	sms := &fakeTransport{channel: models.ChannelSMS, configured: false}
	d := NewDispatcher(email, sms)

	result, err := d.Send(context.Background(), bothChannels(), []models.Recipient{
		recipient("r1", "a@example.com", "+15550100", true),
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.Simulated, "one unconfigured channel makes the whole call simulated")
	assert.True(t, result.EmailConfigured)
	assert.False(t, result.SMSConfigured)
}

func TestSend_InactiveRecipientsSkipped(t *testing.T) {
	email := &fakeTransport{channel: models.ChannelEmail, configured: true}
	sms := &fakeTransport{channel: models.ChannelSMS, configured: true}
	d := NewDispatcher(email, sms)

	recipients := []models.Recipient{
		recipient("r1", "a@example.com", "", true),
		recipient("r2", "b@example.com", "", false),
	}

	result, err := d.Send(context.Background(), bothChannels(), recipients, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Email.Attempted)
	assert.Equal(t, []string{"r1"}, email.sent)
}

func TestSMSText_TruncationAndAudiences(t *testing.T) {
	long := strings.Repeat("evacuate now ", 20)
	msg := Message{
		Body:      long,
		Audiences: []string{"Residents", "Schools", "Hospitals", "Businesses"},
		Threat:    &models.ThreatSummary{Type: "Earthquake", Severity: "critical"},
	}

	text := smsText(msg)
	lines := strings.SplitN(text, "\n", 2)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Threat Monitor: Earthquake (critical) - "))
	assert.Contains(t, lines[0], "...")
	// Only the first three audiences fit.
	assert.Equal(t, "Audiences: Residents; Schools; Hospitals", lines[1])
	assert.LessOrEqual(t, len(text), smsTotalBudget)
}

func TestSMSText_TruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte text offset so a naive byte cut would land mid-rune.
	long := "M7.1 " + strings.Repeat("地震につき直ちに避難してください。", 12)
	msg := Message{
		Body:   long,
		Threat: &models.ThreatSummary{Type: "Earthquake", Severity: "critical"},
	}

	text := smsText(msg)
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "...")
	assert.LessOrEqual(t, len(text), smsTotalBudget)
}

func TestEmailSubjectAndBody(t *testing.T) {
	msg := Message{
		Body:      "Stay indoors.",
		Audiences: []string{"Residents of Fresno"},
		Channels:  []models.Channel{models.ChannelEmail},
		Threat:    &models.ThreatSummary{Type: "Air Quality Alert", Severity: "warning", Region: "CA"},
	}

	assert.Equal(t, "Threat Monitor Alert: Air Quality Alert (warning)", emailSubject(msg.Threat))
	assert.Equal(t, "Threat Monitor Alert: Notification", emailSubject(nil))

	body := emailBody(msg)
	assert.Contains(t, body, "Stay indoors.")
	assert.Contains(t, body, "Recommended audience segments: Residents of Fresno")
	assert.Contains(t, body, "Threat: Air Quality Alert [warning] in CA")
}

func TestUnconfiguredTransportsSimulate(t *testing.T) {
	email := NewEmailTransport("", "")
	require.False(t, email.Configured())
	err := email.Send(context.Background(), recipient("r1", "a@example.com", "", true), Message{Body: "x"})
	require.Error(t, err, "simulated delivery must count as failed")

	sms := NewSMSTransport("", "", "")
	require.False(t, sms.Configured())
	err = sms.Send(context.Background(), recipient("r1", "", "+15550100", true), Message{Body: "x"})
	require.Error(t, err)
}
