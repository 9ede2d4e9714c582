package e2e

import (
	"context"
	"net/http"
	"testing"
	"time"

	"inbox-live/domain"
	"inbox-live/websocket"

	"github.com/stretchr/testify/suite"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type testMessagingSuite struct {
	BaseSuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

func (s *testMessagingSuite) TestLiveDeliveryAndInbox() {
	alice := s.Register("alice")
	bob := s.Register("bob")
	carol := s.Register("carol")

	// --- STEP 1: LIVE PUSH ---
	s.Step("Step 1: bob is pushed alice's message", func() {
		conn := s.Listen(bob.User.ID)
		defer conn.Close()
		// The session registers right after the handshake
		s.Require().Eventually(func() bool {
			var health struct {
				OnlineUsers int `json:"onlineUsers"`
			}
			s.Call(http.MethodGet, "/api/health", "", nil, &health)
			return health.OnlineUsers == 1
		}, 2*time.Second, 20*time.Millisecond)

		var sent domain.Message
		status := s.Call(http.MethodPost, "/api/messages/send/"+bob.User.ID, alice.Token, map[string]string{"message": "lunch at noon, darn it"}, &sent)
		s.Require().Equal(http.StatusCreated, status)
		s.Require().Equal("lunch at noon, **** it", sent.Body)

		frame := s.NextFrame(conn)
		s.Require().Equal(websocket.EventNewMessage, frame.Event)
		s.Require().Equal(sent.ID, frame.Message.ID)
		s.Require().Equal(sent.Body, frame.Message.Body)
	})

	// --- STEP 2: OFFLINE DELIVERY ---
	s.Step("Step 2: an offline recipient still gets the message through history", func() {
		status := s.Call(http.MethodPost, "/api/messages/send/"+alice.User.ID, bob.Token, map[string]string{"message": "see you there"}, nil)
		s.Require().Equal(http.StatusCreated, status)
		status = s.Call(http.MethodPost, "/api/messages/send/"+alice.User.ID, carol.Token, map[string]string{"message": "hello alice"}, nil)
		s.Require().Equal(http.StatusCreated, status)

		var history []domain.Message
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/"+bob.User.ID, alice.Token, nil, &history))
		s.Require().Len(history, 2)
		s.Require().Equal("see you there", history[1].Body)
	})

	// --- STEP 3: INBOX ---
	s.Step("Step 3: alice's inbox lists carol then bob", func() {
		var inbox []domain.Conversation
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/conversations", alice.Token, nil, &inbox))
		s.Require().Len(inbox, 2)
		s.Require().Equal(carol.User.ID, inbox[0].Peer.ID)
		s.Require().Equal("carol", inbox[0].Peer.Username)
		s.Require().Equal("see you there", inbox[1].LastMessage.Body)
	})

	// --- STEP 4: SEARCH ---
	s.Step("Step 4: search only covers alice's conversations", func() {
		var hits []domain.Message
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/search?q=lunch", alice.Token, nil, &hits))
		s.Require().Len(hits, 1)

		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/api/messages/search?q=lunch", carol.Token, nil, &hits))
		s.Require().Empty(hits)
	})

	// --- STEP 5: REJECTIONS ---
	s.Step("Step 5: invalid sends are rejected before persistence", func() {
		s.Require().Equal(http.StatusBadRequest, s.Call(http.MethodPost, "/api/messages/send/"+alice.User.ID, alice.Token, map[string]string{"message": "me"}, nil))
		s.Require().Equal(http.StatusBadRequest, s.Call(http.MethodPost, "/api/messages/send/"+bob.User.ID, alice.Token, map[string]string{"message": "  "}, nil))
		s.Require().Equal(http.StatusNotFound, s.Call(http.MethodPost, "/api/messages/send/ghost", alice.Token, map[string]string{"message": "boo"}, nil))
		s.Require().Equal(http.StatusUnauthorized, s.Call(http.MethodGet, "/api/messages/conversations", "", nil, nil))
	})
}

func (s *testMessagingSuite) TestGrpcHealth() {
	s.WithHealth("Health check", func(ctx context.Context, client healthpb.HealthClient) {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		s.Require().NoError(err)
		s.Require().Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

