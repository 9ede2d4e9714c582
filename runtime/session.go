package runtime

import (
	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Session is the lifecycle wrapper around one live connection.
// It moves Connecting -> Open -> Closed, registers itself in the presence registry
// when opened and unregisters exactly once when closed, whatever closed it.
//
// Pushed messages land in a bounded outbound queue drained by the transport's writer loop.
type Session struct {
	id       string
	userID   string
	log      *slog.Logger
	registry contract.IPresenceRegistry
	outbound chan domain.Message
	done     chan struct{}

	mu    sync.Mutex
	state SessionState
}

func NewSession(log *slog.Logger, registry contract.IPresenceRegistry, userID string, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Session{
		id:       uuid.NewString(),
		userID:   userID,
		log:      log,
		registry: registry,
		outbound: make(chan domain.Message, bufferSize),
		done:     make(chan struct{}),
		state:    StateConnecting,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outbound is drained by the writer loop of the transport.
func (s *Session) Outbound() <-chan domain.Message { return s.outbound }

// Done is closed when the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Open makes the session reachable through the registry.
// A session closed before the handshake completed stays closed.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return errors.ErrSessionClosed
	}
	s.state = StateOpen
	s.registry.Register(s.userID, s)
	s.log.Info("Live connection opened", "user_id", s.userID, "connection_id", s.id)
	return nil
}

// Close is safe to call from every exit path, any number of times.
// Only the first call after Open unregisters the handle.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return
	case StateOpen:
		s.registry.Unregister(s.userID, s)
		s.log.Info("Live connection closed", "user_id", s.userID, "connection_id", s.id)
	}
	s.state = StateClosed
	close(s.done)
}

// Push enqueues without blocking. A slow consumer loses the push,
// the message stays reachable through history.
func (s *Session) Push(message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return errors.ErrSessionClosed
	}
	select {
	case s.outbound <- message:
		return nil
	default:
		return errors.ErrOutboundFull
	}
}
