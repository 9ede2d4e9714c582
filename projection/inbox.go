// Package projection builds read views from the flat message store.
// Handles grouping and ordering of already persisted messages.
// Does not persist, emit events or talk to connections.
package projection

import (
	"context"
	"inbox-live/contract"
	"inbox-live/domain"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

// Inbox derives the conversation view of a user.
type Inbox struct {
	log      *slog.Logger
	profiles contract.IProfileResolver
}

func NewInbox(log *slog.Logger, profiles contract.IProfileResolver) *Inbox {
	return &Inbox{log: log, profiles: profiles}
}

// Conversations groups the viewer's messages by peer, keeps the latest message of each
// group and orders groups newest first. Peers without a profile are left out.
func (i *Inbox) Conversations(ctx context.Context, viewerID string, messages []domain.Message) []domain.Conversation {
	latest := make(map[string]domain.Message)
	for _, m := range messages {
		if !m.Involves(viewerID) || m.SenderID == m.ReceiverID {
			continue
		}
		peer := m.PeerOf(viewerID)
		if current, ok := latest[peer]; !ok || m.After(current) {
			latest[peer] = m
		}
	}

	lastMessages := lo.Values(latest)
	slices.SortFunc(lastMessages, NewestFirst)

	return lo.FilterMap(lastMessages, func(m domain.Message, _ int) (domain.Conversation, bool) {
		peer := m.PeerOf(viewerID)
		profile, ok := i.profiles.ResolveProfile(ctx, peer)
		if !ok {
			i.log.DebugContext(ctx, "Conversation peer has no profile, skipped", "user_id", viewerID, "peer_id", peer)
			return domain.Conversation{}, false
		}
		return domain.Conversation{Peer: profile, LastMessage: m}, true
	})
}

// History returns the messages exchanged by a and b in chat-reading order, oldest first.
// The input is left untouched.
func History(a, b string, messages []domain.Message) []domain.Message {
	res := lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.Between(a, b)
	})
	slices.SortFunc(res, OldestFirst)
	return res
}

// NewestFirst orders by createdAt descending, then id descending.
func NewestFirst(a, b domain.Message) int {
	switch {
	case a.After(b):
		return -1
	case b.After(a):
		return 1
	default:
		return 0
	}
}

// OldestFirst orders by createdAt ascending, then id ascending.
func OldestFirst(a, b domain.Message) int {
	return NewestFirst(b, a)
}
