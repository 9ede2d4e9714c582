package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"inbox-live/contract"
	"inbox-live/domain"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type handle struct {
	id string
}

func newHandle() handle { return handle{id: uuid.NewString()} }

func (h handle) ID() string { return h.id }

func (h handle) Push(domain.Message) error { return nil }

func ids(handles []contract.ConnectionHandle) []string {
	return lo.Map(handles, func(h contract.ConnectionHandle, _ int) string { return h.ID() })
}

func TestRegistry_Register_One_User_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	tab := newHandle()

	// Given no user is connected
	req.Empty(registry.Lookup("alice"))
	req.False(registry.IsOnline("alice"))

	// When alice opens a connection
	registry.Register("alice", tab)

	// Then
	req.True(registry.IsOnline("alice"))
	req.Equal([]string{tab.ID()}, ids(registry.Lookup("alice")))
	users, connections := registry.Stats()
	req.Equal(1, users)
	req.Equal(1, connections)
}

func TestRegistry_Register_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	tab := newHandle()

	// When the same connection registers twice
	registry.Register("alice", tab)
	registry.Register("alice", tab)

	// Then it is counted once
	req.Len(registry.Lookup("alice"), 1)
	_, connections := registry.Stats()
	req.Equal(1, connections)
}

func TestRegistry_Multiple_Tabs_Are_Kept_Apart(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	oldTab, newTab := newHandle(), newHandle()

	// Given alice has two tabs open
	registry.Register("alice", oldTab)
	registry.Register("alice", newTab)
	req.ElementsMatch([]string{oldTab.ID(), newTab.ID()}, ids(registry.Lookup("alice")))

	// When the old tab closes
	registry.Unregister("alice", oldTab)

	// Then alice is still online through the new tab
	req.True(registry.IsOnline("alice"))
	req.Equal([]string{newTab.ID()}, ids(registry.Lookup("alice")))
}

func TestRegistry_Last_Unregister_Removes_The_Entry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	tab := newHandle()

	// Given
	registry.Register("alice", tab)

	// When the last connection closes
	registry.Unregister("alice", tab)

	// Then no entry is left behind
	req.Nil(registry.Lookup("alice"))
	req.False(registry.IsOnline("alice"))
	users, connections := registry.Stats()
	req.Zero(users)
	req.Zero(connections)

	// And a duplicate close is a no-op
	req.NotPanics(func() { registry.Unregister("alice", tab) })
	req.Nil(registry.Lookup("alice"))
}

func TestRegistry_Unregister_Unknown_Handle_Keeps_Others(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	tab, stranger := newHandle(), newHandle()

	// Given
	registry.Register("alice", tab)

	// When a handle alice never registered is removed
	registry.Unregister("alice", stranger)

	// Then alice keeps her connection
	req.Equal([]string{tab.ID()}, ids(registry.Lookup("alice")))
}

func TestRegistry_Lookup_Returns_A_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	tab := newHandle()
	registry.Register("alice", tab)

	// When the registry changes after the lookup
	snapshot := registry.Lookup("alice")
	registry.Unregister("alice", tab)

	// Then the snapshot is unaffected
	req.Len(snapshot, 1)
	req.Nil(registry.Lookup("alice"))
}

func TestRegistry_Concurrent_Register_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), 8)
	users := 20
	tabs := 10
	kept := make(map[string]handle)

	// When every user opens several tabs and closes all but one, concurrently
	var mu sync.Mutex
	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)
		for i := 0; i < tabs; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				h := newHandle()
				registry.Register(userID, h)
				_ = registry.Lookup(userID)
				if i == 0 {
					mu.Lock()
					kept[userID] = h
					mu.Unlock()
					return
				}
				registry.Unregister(userID, h)
			}(i)
		}
	}
	wg.Wait()

	// Then exactly the kept tab remains for each user
	for userID, h := range kept {
		req.Equal([]string{h.ID()}, ids(registry.Lookup(userID)))
	}
	onlineUsers, connections := registry.Stats()
	req.Equal(users, onlineUsers)
	req.Equal(users, connections)
}
