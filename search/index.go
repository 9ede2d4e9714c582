// Package search keeps a full-text index of message bodies.
// The index is secondary: badger stays the source of truth and a
// missing document only hides a message from search results.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"inbox-live/domain"
	"inbox-live/repositories"

	"github.com/blugelabs/bluge"
)

const (
	fieldBody        = "body"
	fieldParticipant = "participant"
	fieldPair        = "pair"
	fieldCreatedAt   = "created_at"
	fieldRecord      = "record"
)

// MessageIndex indexes messages in bluge.
// Each document stores the encoded message so hits are returned without
// going back to the message store.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (i *MessageIndex) Index(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewTextField(fieldBody, message.Body)).
		AddField(bluge.NewKeywordField(fieldParticipant, message.SenderID)).
		AddField(bluge.NewKeywordField(fieldParticipant, message.ReceiverID)).
		AddField(bluge.NewKeywordField(fieldPair, pair(message.SenderID, message.ReceiverID))).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).Sortable()).
		AddField(bluge.NewStoredOnlyField(fieldRecord, repositories.MarshalMessage(message)))

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %s: %w", message.ID, err)
	}
	return nil
}

// Search matches terms against the bodies of the viewer's messages, newest first.
func (i *MessageIndex) Search(ctx context.Context, viewerID, peerID, terms string, limit int) ([]domain.Message, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField(fieldBody).SetOperator(bluge.MatchQueryOperatorAnd)).
		AddMust(bluge.NewTermQuery(viewerID).SetField(fieldParticipant))
	if peerID != "" {
		query.AddMust(bluge.NewTermQuery(pair(viewerID, peerID)).SetField(fieldPair))
	}

	request := bluge.NewTopNSearch(ClampLimit(limit), query).
		SortBy([]string{"-" + fieldCreatedAt, "-_id"})

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Debug("Failed to close index reader", "error", err)
		}
	}()

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var res []domain.Message
	match, err := matches.Next()
	for err == nil && match != nil {
		var decodeErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != fieldRecord {
				return true
			}
			var message domain.Message
			message, decodeErr = repositories.UnmarshalMessage(value)
			if decodeErr == nil {
				res = append(res, message)
			}
			return false
		})
		if err == nil {
			err = decodeErr
		}
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func pair(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
