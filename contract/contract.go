//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"inbox-live/domain"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used in supervision logs so workers don't have to name themselves.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ConnectionHandle is one live connection able to receive pushed messages.
// Push must never block: a full or closed connection returns an error instead.
type ConnectionHandle interface {
	ID() string
	Push(message domain.Message) error
}

// IPresenceRegistry tracks which users currently hold live connections.
type IPresenceRegistry interface {
	Register(userID string, handle ConnectionHandle)
	Unregister(userID string, handle ConnectionHandle)
	Lookup(userID string) []ConnectionHandle
}

// IDeliverer pushes an already persisted message to its recipient.
type IDeliverer interface {
	Deliver(ctx context.Context, message domain.Message)
}

// IMessageStore is the durable, append-only record of messages.
type IMessageStore interface {
	CreateMessage(ctx context.Context, senderID, receiverID, body string) (domain.Message, error)
	ListMessagesBetween(ctx context.Context, userA, userB string) ([]domain.Message, error)
	ListMessagesInvolving(ctx context.Context, userID string) ([]domain.Message, error)
}

// IProfileResolver decorates identities with displayable info.
// The boolean is false when the identity no longer resolves.
type IProfileResolver interface {
	ResolveProfile(ctx context.Context, userID string) (domain.Profile, bool)
}

// IUserStore persists accounts.
type IUserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, avatarRef string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// IMessageIndex is a best-effort full-text index fed after persistence.
// Search only returns messages the viewer took part in, newest first.
// An empty peerID searches every conversation of the viewer.
type IMessageIndex interface {
	Index(ctx context.Context, message domain.Message) error
	Search(ctx context.Context, viewerID, peerID, terms string, limit int) ([]domain.Message, error)
}
