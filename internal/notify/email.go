package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// EmailTransport delivers over the Resend API. Without an API key it logs
// the would-be delivery and reports failure so the tally reflects that
// nothing actually went out.
type EmailTransport struct {
	client *resend.Client
	from   string
}

func NewEmailTransport(apiKey, from string) *EmailTransport {
	t := &EmailTransport{from: from}
	if t.from == "" {
		t.from = "threat-monitor@example.com"
	}
	if apiKey == "" {
		slog.Warn("email API key not set, email transport will simulate deliveries")
		return t
	}
	t.client = resend.NewClient(apiKey)
	return t
}

func (t *EmailTransport) Channel() models.Channel {
	return models.ChannelEmail
}

func (t *EmailTransport) Configured() bool {
	return t.client != nil
}

func (t *EmailTransport) Send(ctx context.Context, recipient models.Recipient, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := emailSubject(msg.Threat)

	if !t.Configured() {
		slog.Info("simulated email delivery", "to", recipient.Email, "subject", subject)
		return fmt.Errorf("email transport not configured")
	}

	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{recipient.Email},
		Subject: subject,
		Text:    emailBody(msg),
	}

	sent, err := t.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}

	slog.Debug("email sent", "email_id", sent.Id, "to", recipient.Email)
	return nil
}

func emailSubject(summary *models.ThreatSummary) string {
	if summary == nil {
		return "Threat Monitor Alert: Notification"
	}
	sev := summary.Severity
	if sev == "" {
		sev = string(models.SeverityAdvisory)
	}
	return fmt.Sprintf("Threat Monitor Alert: %s (%s)", summary.Type, sev)
}

func emailBody(msg Message) string {
	lines := []string{msg.Body, ""}

	audiences := "N/A"
	if len(msg.Audiences) > 0 {
		audiences = strings.Join(msg.Audiences, ", ")
	}
	lines = append(lines, "Recommended audience segments: "+audiences)

	channels := make([]string, len(msg.Channels))
	for i, c := range msg.Channels {
		channels[i] = string(c)
	}
	lines = append(lines, "Channels: "+strings.Join(channels, ", "))

	if s := msg.Threat; s != nil {
		line := fmt.Sprintf("Threat: %s [%s]", s.Type, s.Severity)
		if s.Region != "" {
			line += " in " + s.Region
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", "Sent by Threat Monitor.")
	return strings.Join(lines, "\n")
}
