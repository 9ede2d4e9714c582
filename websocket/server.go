// Package websocket serves live connections. A connection only receives:
// sends go through the HTTP API and reach the receiver here as pushed frames.
package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"inbox-live/auth"
	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/runtime"

	gws "github.com/gorilla/websocket"
)

// EventNewMessage is the only event a server pushes.
const EventNewMessage = "newMessage"

const maxInboundBytes = 512

// Frame is the JSON envelope written for every pushed message.
type Frame struct {
	Event   string         `json:"event"`
	Message domain.Message `json:"data"`
}

type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	BufferSize     int
	AllowedOrigins []string // empty allows any origin
}

// Server upgrades handshake requests and binds each connection to a runtime.Session.
type Server struct {
	ctx      context.Context
	log      *slog.Logger
	registry contract.IPresenceRegistry
	identity auth.IdentityFunc
	cfg      Config
	upgrader gws.Upgrader
}

// NewServer closes every live connection once ctx is done.
func NewServer(ctx context.Context, log *slog.Logger, registry contract.IPresenceRegistry, identity auth.IdentityFunc, cfg Config) *Server {
	s := &Server{ctx: ctx, log: log, registry: registry, identity: identity, cfg: cfg}
	s.upgrader = gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := s.identity(r)
	if err != nil {
		s.log.Debug("Live connection rejected", "error", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	session := runtime.NewSession(s.log, s.registry, userID, s.cfg.BufferSize)
	// Whatever ends the connection, the handle leaves the registry
	defer session.Close()
	if err := session.Open(); err != nil {
		return
	}

	go s.readLoop(conn, session)
	s.writeLoop(conn, session)
}

// readLoop only exists to process control frames and detect a dead peer.
func (s *Server) readLoop(conn *gws.Conn, session *runtime.Session) {
	defer session.Close()

	conn.SetReadLimit(maxInboundBytes)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure, gws.CloseNoStatusReceived) {
				s.log.Debug("Live connection read failed", "connection_id", session.ID(), "error", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(conn *gws.Conn, session *runtime.Session) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case message := <-session.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteJSON(Frame{Event: EventNewMessage, Message: message}); err != nil {
				s.log.Warn("Push write failed",
					"connection_id", session.ID(), "message_id", message.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(gws.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
		case <-session.Done():
			return
		case <-s.ctx.Done():
			closing := gws.FormatCloseMessage(gws.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(gws.CloseMessage, closing, time.Now().Add(s.cfg.WriteTimeout))
			return
		}
	}
}
