package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"inbox-live/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	// ConversationPrefix indexes messages by participant pair: "msg:{lo}:{hi}:{ts}:{id}".
	ConversationPrefix = "msg:"
	// InboxPrefix indexes messages by participant: "inbox:{user}:{ts}:{id}".
	InboxPrefix = "inbox:"
)

// MessageRepository is the durable, append-only message store.
//
// Every message is written once per index in a single transaction:
// the pair index serves history fetches and the per-user index feeds the
// conversation view. User ids are escaped so ':' never ends a segment early.
// Timestamps are zero padded to 19 digits so lexicographic
// key order is chronological order.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time

	// writeMu serializes id and createdAt assignment with the commit, so that
	// commit order, createdAt order and id order agree.
	writeMu sync.Mutex
	last    time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, now: time.Now}
}

// CreateMessage assigns an id and a creation time, then persists the message.
// The returned message is durable once the call succeeds.
func (m *MessageRepository) CreateMessage(ctx context.Context, senderID, receiverID, body string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	at := m.now().UTC()
	if !at.After(m.last) {
		at = m.last.Add(time.Nanosecond)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("generate message id: %w", err)
	}

	message := domain.Message{
		ID:         id.String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  at,
	}
	value := MarshalMessage(message)
	keys := []string{
		conversationKey(senderID, receiverID, message),
		inboxKey(senderID, message),
		inboxKey(receiverID, message),
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Set([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}

	m.last = at
	m.log.DebugContext(ctx, "Message stored", "message_id", message.ID, "sender_id", senderID, "receiver_id", receiverID)
	return message, nil
}

// ListMessagesBetween returns every message exchanged by a and b, oldest first.
func (m *MessageRepository) ListMessagesBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.scan(conversationPrefix(a, b))
}

// ListMessagesInvolving returns every message sent or received by userID, oldest first.
func (m *MessageRepository) ListMessagesInvolving(ctx context.Context, userID string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.scan(inboxPrefix(userID))
}

func (m *MessageRepository) scan(prefix string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				message, err := UnmarshalMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// segmentEscaper keeps user ids from spilling into the next key segment.
var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func segment(id string) string {
	return segmentEscaper.Replace(id)
}

// The pair is ordered so both directions share one key range.
func conversationPrefix(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%s%s:%s:", ConversationPrefix, segment(a), segment(b))
}

func conversationKey(a, b string, message domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", conversationPrefix(a, b), message.CreatedAt.UnixNano(), message.ID)
}

func inboxPrefix(userID string) string {
	return InboxPrefix + segment(userID) + ":"
}

func inboxKey(userID string, message domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", inboxPrefix(userID), message.CreatedAt.UnixNano(), message.ID)
}
