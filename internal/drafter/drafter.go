// Package drafter produces notification drafts for threats. A remote
// drafting service can be plugged in; whenever it is absent or fails, a
// deterministic template fallback is used instead, and the two paths are
// indistinguishable to the caller apart from the fallback flag.
package drafter

import (
	"context"
	"log/slog"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// Remote is the external drafting collaborator.
type Remote interface {
	Configured() bool
	Draft(ctx context.Context, threat models.Threat, extra string) (models.Draft, error)
}

// Service drafts messages, preferring the remote collaborator when one is
// configured.
type Service struct {
	remote Remote
}

func NewService(remote Remote) *Service {
	return &Service{remote: remote}
}

// Draft returns a ready-to-send draft for the threat. The second return
// reports whether the deterministic fallback was used. Draft never fails:
// any remote error degrades to the fallback.
func (s *Service) Draft(ctx context.Context, threat models.Threat, extra string) (models.Draft, bool) {
	if s.remote == nil || !s.remote.Configured() {
		return Fallback(threat), true
	}

	draft, err := s.remote.Draft(ctx, threat, extra)
	if err != nil {
		slog.Warn("remote drafting failed, using fallback", "threat", threat.ID, "error", err)
		return Fallback(threat), true
	}

	// Backfill anything the remote left empty so the draft contract
	// (non-empty message, audiences and channels) always holds.
	fb := Fallback(threat)
	if draft.Message == "" {
		draft.Message = fb.Message
	}
	if len(draft.Audiences) == 0 {
		draft.Audiences = fb.Audiences
	}
	draft.Channels = validChannels(draft.Channels)
	if len(draft.Channels) == 0 {
		draft.Channels = fb.Channels
	}
	return draft, false
}

func validChannels(channels []models.Channel) []models.Channel {
	var out []models.Channel
	for _, c := range channels {
		if _, ok := models.ParseChannel(string(c)); ok {
			out = append(out, c)
		}
	}
	return out
}
