package models

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// ParseChannel resolves a wire value to a known channel.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelEmail:
		return ChannelEmail, true
	case ChannelSMS:
		return ChannelSMS, true
	default:
		return "", false
	}
}

// Draft is a notification message scoped to a single send transaction.
// It is never persisted.
type Draft struct {
	Message   string    `json:"message"`
	Audiences []string  `json:"audiences"`
	Channels  []Channel `json:"channels"`
}

// ThreatSummary is the slice of a threat attached to a notify request so
// transports can label the delivery without carrying the full record.
type ThreatSummary struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Region   string `json:"region,omitempty"`
	Source   string `json:"source,omitempty"`
}
