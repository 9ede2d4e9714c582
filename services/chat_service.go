//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/errors"
	"inbox-live/moderation"
	"inbox-live/observability"
	"inbox-live/projection"
	"inbox-live/search"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type IChatService interface {
	SendMessage(ctx context.Context, senderID, receiverID, body string) (domain.Message, error)
	GetHistory(ctx context.Context, viewerID, peerID string) ([]domain.Message, error)
	GetConversations(ctx context.Context, viewerID string) ([]domain.Conversation, error)
	Search(ctx context.Context, viewerID string, query search.Query) ([]domain.Message, error)
}

type SendRequest struct {
	SenderID   string `validate:"required"`
	ReceiverID string `validate:"required,nefield=SenderID"`
	Body       string `validate:"required"`
}

// ChatService is the request surface of direct messaging.
// A send is validated, persisted, then delivered: nothing is pushed
// or indexed for a message that is not durable.
type ChatService struct {
	log           *slog.Logger
	store         contract.IMessageStore
	profiles      contract.IProfileResolver
	deliverer     contract.IDeliverer
	index         contract.IMessageIndex
	moderator     *moderation.Moderator
	inbox         *projection.Inbox
	metrics       *observability.Metrics
	maxBodyLength int
}

// NewChatService accepts a nil index and a nil moderator, both features are then off.
func NewChatService(
	log *slog.Logger,
	store contract.IMessageStore,
	profiles contract.IProfileResolver,
	deliverer contract.IDeliverer,
	index contract.IMessageIndex,
	moderator *moderation.Moderator,
	metrics *observability.Metrics,
	maxBodyLength int,
) *ChatService {
	return &ChatService{
		log:           log,
		store:         store,
		profiles:      profiles,
		deliverer:     deliverer,
		index:         index,
		moderator:     moderator,
		inbox:         projection.NewInbox(log, profiles),
		metrics:       metrics,
		maxBodyLength: maxBodyLength,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, body string) (domain.Message, error) {
	if err := s.validateSend(SendRequest{SenderID: senderID, ReceiverID: receiverID, Body: body}); err != nil {
		s.metrics.SendFailed("validation")
		return domain.Message{}, err
	}

	if _, ok := s.profiles.ResolveProfile(ctx, receiverID); !ok {
		s.metrics.SendFailed("unknown_recipient")
		return domain.Message{}, errors.ErrUnknownRecipient
	}

	body = s.censor(ctx, senderID, body)

	message, err := s.store.CreateMessage(ctx, senderID, receiverID, body)
	if err != nil {
		s.metrics.SendFailed("store")
		s.log.ErrorContext(ctx, "Failed to persist message", "sender_id", senderID, "receiver_id", receiverID, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStore, err)
	}
	s.metrics.MessageSent()

	// The message is durable: a cancelled request must not lose the push.
	afterCommit := context.WithoutCancel(ctx)
	s.deliverer.Deliver(afterCommit, message)
	if s.index != nil {
		if err := s.index.Index(afterCommit, message); err != nil {
			s.log.WarnContext(ctx, "Failed to index message", "message_id", message.ID, "error", err)
		}
	}
	return message, nil
}

func (s *ChatService) GetHistory(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	if peerID == "" {
		return nil, errors.ErrMissingRecipient
	}
	messages, err := s.store.ListMessagesBetween(ctx, viewerID, peerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStore, err)
	}
	return projection.History(viewerID, peerID, messages), nil
}

func (s *ChatService) GetConversations(ctx context.Context, viewerID string) ([]domain.Conversation, error) {
	messages, err := s.store.ListMessagesInvolving(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStore, err)
	}
	return s.inbox.Conversations(ctx, viewerID, messages), nil
}

func (s *ChatService) Search(ctx context.Context, viewerID string, query search.Query) ([]domain.Message, error) {
	if strings.TrimSpace(query.Terms) == "" {
		return nil, errors.ErrEmptyQuery
	}
	if s.index == nil {
		return []domain.Message{}, nil
	}
	messages, err := s.index.Search(ctx, viewerID, query.PeerID, query.Terms, search.ClampLimit(query.Limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStore, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

func (s *ChatService) validateSend(req SendRequest) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if !stderrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
			return fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
		switch fe := fieldErrors[0]; {
		case fe.Field() == "ReceiverID" && fe.Tag() == "nefield":
			return errors.ErrSelfMessage
		case fe.Field() == "ReceiverID":
			return errors.ErrMissingRecipient
		case fe.Field() == "Body":
			return errors.ErrEmptyBody
		default:
			return fmt.Errorf("%w: %v", errors.ErrValidation, fe)
		}
	}
	if strings.TrimSpace(req.Body) == "" {
		return errors.ErrEmptyBody
	}
	if s.maxBodyLength > 0 && len(req.Body) > s.maxBodyLength {
		return errors.ErrBodyTooLong
	}
	return nil
}

func (s *ChatService) censor(ctx context.Context, senderID, body string) string {
	censored, words := s.moderator.Censor(body)
	if len(words) > 0 {
		s.log.WarnContext(ctx, "Censored words in message",
			"sender_id", senderID,
			"words", len(words),
			"lang", moderation.Language(body))
	}
	return censored
}
