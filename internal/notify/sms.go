package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	twilio "github.com/kevinburke/twilio-go"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

const (
	smsBodyBudget    = 120
	smsTotalBudget   = 300
	smsAudienceLimit = 3
)

// SMSTransport delivers over Twilio. Configuration requires account SID,
// auth token and a from-number; anything less simulates.
type SMSTransport struct {
	client *twilio.Client
	from   string
}

func NewSMSTransport(accountSID, authToken, from string) *SMSTransport {
	t := &SMSTransport{from: from}
	if accountSID == "" || authToken == "" || from == "" {
		slog.Warn("twilio credentials incomplete, sms transport will simulate deliveries")
		return t
	}
	t.client = twilio.NewClient(accountSID, authToken, nil)
	return t
}

func (t *SMSTransport) Channel() models.Channel {
	return models.ChannelSMS
}

func (t *SMSTransport) Configured() bool {
	return t.client != nil
}

func (t *SMSTransport) Send(ctx context.Context, recipient models.Recipient, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := smsText(msg)

	if !t.Configured() {
		slog.Info("simulated sms delivery", "to", recipient.Phone, "text", text)
		return fmt.Errorf("sms transport not configured")
	}

	if _, err := t.client.Messages.SendMessage(t.from, recipient.Phone, text, nil); err != nil {
		return fmt.Errorf("sms send failed: %w", err)
	}
	return nil
}

// smsText compresses the draft into SMS-sized text: a labeled first line
// with the truncated message, then up to three audience segments if they
// still fit the total budget.
func smsText(msg Message) string {
	body := msg.Body
	if len(body) > smsBodyBudget {
		cut := smsBodyBudget - 3
		// Back up to a rune boundary so the cut never splits a character.
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}

	threatType := "Alert"
	sev := string(models.SeverityAdvisory)
	if s := msg.Threat; s != nil {
		if s.Type != "" {
			threatType = s.Type
		}
		if s.Severity != "" {
			sev = s.Severity
		}
	}
	line1 := fmt.Sprintf("Threat Monitor: %s (%s) - %s", threatType, sev, body)

	if len(msg.Audiences) == 0 {
		return line1
	}

	limit := smsAudienceLimit
	if len(msg.Audiences) < limit {
		limit = len(msg.Audiences)
	}
	withAudiences := line1 + "\nAudiences: " + strings.Join(msg.Audiences[:limit], "; ")
	if len(withAudiences) <= smsTotalBudget {
		return withAudiences
	}
	return line1
}
