package e2e

import (
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"inbox-live/api"
	"inbox-live/auth"
	grpc2 "inbox-live/grpc"
	"inbox-live/moderation"
	"inbox-live/observability"
	"inbox-live/ratelimit"
	"inbox-live/repositories"
	"inbox-live/runtime"
	"inbox-live/search"
	"inbox-live/services"
	"inbox-live/websocket"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// startStack wires the whole server on ephemeral ports, the same way cmd/server does.
func startStack(t *testing.T) (serverURL, grpcAddr string) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	moderator, err := moderation.NewModerator([]string{"darn"}, '*', log)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	messages := repositories.NewMessageRepository(db, log)
	users := repositories.NewUserRepository(db, log)
	registry := runtime.NewRegistry(log, 8)
	tokens := auth.NewTokenManager("e2e-secret", time.Hour)

	chat := services.NewChatService(log, messages, users, runtime.NewFanout(log, registry, metrics),
		search.NewMessageIndex(writer, log), moderator, metrics, 4096)
	accounts := services.NewAuthService(log, users, tokens)

	live := websocket.NewServer(ctx, log, registry, auth.QueryIdentity, websocket.Config{
		PingInterval: time.Second,
		PongTimeout:  5 * time.Second,
		WriteTimeout: time.Second,
		BufferSize:   16,
	})
	handler := api.NewHandler(log, chat, accounts, observability.NewMonitoringManager(log, registry),
		ratelimit.New(50, 50, time.Minute), metrics)
	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Log:      log,
		Handler:  handler,
		Tokens:   tokens,
		Live:     live,
		Metrics:  metrics,
		Gatherer: reg,
	}))
	t.Cleanup(server.Close)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcServer := grpc2.NewServer(log, grpc2.NewHealth())
	go func() { _ = grpcServer.Serve(listener) }()
	t.Cleanup(grpcServer.Stop)

	return server.URL, listener.Addr().String()
}
