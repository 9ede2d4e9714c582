package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/errors"
	"inbox-live/mocks"
	"inbox-live/observability"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func message(id, sender, receiver, body string) domain.Message {
	return domain.Message{ID: id, SenderID: sender, ReceiverID: receiver, Body: body, CreatedAt: time.Now().UTC()}
}

func TestFanout_Pushes_In_Delivery_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, 4)
	fanout := NewFanout(log, registry, nil)

	// Given bob is connected
	bob := NewSession(log, registry, "bob", 8)
	req.NoError(bob.Open())
	defer bob.Close()

	// When alice's messages are delivered one after the other
	m1 := message("1", "alice", "bob", "first")
	m2 := message("2", "alice", "bob", "second")
	fanout.Deliver(ctx, m1)
	fanout.Deliver(ctx, m2)

	// Then bob observes them in that order
	req.Equal(m1, <-bob.Outbound())
	req.Equal(m2, <-bob.Outbound())
}

func TestFanout_Pushes_To_Every_Connection_Of_The_Receiver(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIPresenceRegistry(ctrl)
	tab1 := mocks.NewMockConnectionHandle(ctrl)
	tab2 := mocks.NewMockConnectionHandle(ctrl)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	fanout := NewFanout(logs.GetLoggerFromLevel(slog.LevelDebug), registry, metrics)
	m := message("1", "alice", "bob", "hi")

	// Given bob has two tabs open
	registry.EXPECT().Lookup("bob").Return([]contract.ConnectionHandle{tab1, tab2})

	// Then each tab gets the full message
	tab1.EXPECT().Push(m).Return(nil)
	tab2.EXPECT().Push(m).Return(nil)

	// When
	fanout.Deliver(context.Background(), m)

	req.Equal(float64(2), testutil.ToFloat64(metrics.Pushes.WithLabelValues("delivered")))
}

func TestFanout_Offline_Receiver_Is_A_No_Op(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIPresenceRegistry(ctrl)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	fanout := NewFanout(logs.GetLoggerFromLevel(slog.LevelDebug), registry, metrics)

	// Given bob is offline
	registry.EXPECT().Lookup("bob").Return(nil)

	// When
	fanout.Deliver(context.Background(), message("1", "alice", "bob", "you there?"))

	// Then nothing is pushed
	req.Equal(float64(1), testutil.ToFloat64(metrics.Pushes.WithLabelValues("offline")))
	req.Zero(testutil.ToFloat64(metrics.Pushes.WithLabelValues("delivered")))
}

func TestFanout_Failed_Push_Does_Not_Stop_Other_Connections(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIPresenceRegistry(ctrl)
	slow := mocks.NewMockConnectionHandle(ctrl)
	stale := mocks.NewMockConnectionHandle(ctrl)
	healthy := mocks.NewMockConnectionHandle(ctrl)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	fanout := NewFanout(logs.GetLoggerFromLevel(slog.LevelDebug), registry, metrics)
	m := message("1", "alice", "bob", "hi")

	// Given
	registry.EXPECT().Lookup("bob").Return([]contract.ConnectionHandle{slow, stale, healthy})
	slow.EXPECT().Push(m).Return(errors.ErrOutboundFull)
	slow.EXPECT().ID().Return("slow").AnyTimes()
	stale.EXPECT().Push(m).Return(errors.ErrSessionClosed)
	stale.EXPECT().ID().Return("stale").AnyTimes()
	healthy.EXPECT().Push(m).Return(nil)

	// When
	req.NotPanics(func() { fanout.Deliver(context.Background(), m) })

	// Then
	req.Equal(float64(1), testutil.ToFloat64(metrics.Pushes.WithLabelValues("queue_full")))
	req.Equal(float64(1), testutil.ToFloat64(metrics.Pushes.WithLabelValues("closed")))
	req.Equal(float64(1), testutil.ToFloat64(metrics.Pushes.WithLabelValues("delivered")))
}

func TestFanout_Does_Not_Reach_A_Closed_Session(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewRegistry(log, 4)
	fanout := NewFanout(log, registry, nil)

	// Given bob connected then disconnected
	bob := NewSession(log, registry, "bob", 8)
	req.NoError(bob.Open())
	bob.Close()

	// When
	fanout.Deliver(context.Background(), message("1", "alice", "bob", "you there?"))

	// Then
	req.Empty(bob.Outbound())
}
