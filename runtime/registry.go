package runtime

import (
	"inbox-live/contract"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 32

// Handles is the set of live connections of one user, keyed by connection id.
type Handles map[string]contract.ConnectionHandle

type shard struct {
	mu       sync.RWMutex
	sessions map[string]Handles // map user -> live connections
}

// Registry maps users to their live connections.
// Users are spread over lock-striped shards so that registering one user
// never contends with a lookup for another user on a different shard.
type Registry struct {
	log    *slog.Logger
	shards []*shard
}

func NewRegistry(log *slog.Logger, shards int) *Registry {
	if shards <= 0 {
		shards = defaultShards
	}
	r := &Registry{log: log, shards: make([]*shard, shards)}
	for i := range r.shards {
		r.shards[i] = &shard{sessions: make(map[string]Handles)}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	return r.shards[xxhash.Sum64String(userID)%uint64(len(r.shards))]
}

// Register adds handle to the user's connection set, creating the entry on first connection.
// Registering the same handle twice keeps a single entry.
func (r *Registry) Register(userID string, handle contract.ConnectionHandle) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	handles, ok := s.sessions[userID]
	if !ok {
		handles = make(Handles)
		s.sessions[userID] = handles
	}
	handles[handle.ID()] = handle
	r.log.Debug("Presence registered", "user_id", userID, "connection_id", handle.ID(), "connections", len(handles))
}

// Unregister removes exactly this handle. The user entry is deleted with its last handle,
// so an online user always has at least one connection.
// Removing an unknown handle is a no-op: transports may report a close twice.
func (r *Registry) Unregister(userID string, handle contract.ConnectionHandle) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	handles, ok := s.sessions[userID]
	if !ok {
		r.log.Debug("Unregister for offline user ignored", "user_id", userID, "connection_id", handle.ID())
		return
	}
	if _, ok = handles[handle.ID()]; !ok {
		r.log.Debug("Unregister for unknown connection ignored", "user_id", userID, "connection_id", handle.ID())
		return
	}
	delete(handles, handle.ID())

	// Last connection gone, the user is offline
	if len(handles) == 0 {
		delete(s.sessions, userID)
	}
	r.log.Debug("Presence unregistered", "user_id", userID, "connection_id", handle.ID(), "connections", len(handles))
}

// Lookup returns a snapshot of the user's live connections, nil when offline.
// The snapshot is safe to use after the lock is released.
func (r *Registry) Lookup(userID string) []contract.ConnectionHandle {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	handles, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	res := make([]contract.ConnectionHandle, 0, len(handles))
	for _, h := range handles {
		res = append(res, h)
	}
	return res
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}

// Stats counts online users and live connections across all shards.
func (r *Registry) Stats() (users int, connections int) {
	for _, s := range r.shards {
		s.mu.RLock()
		users += len(s.sessions)
		for _, handles := range s.sessions {
			connections += len(handles)
		}
		s.mu.RUnlock()
	}
	return users, connections
}
