package projection_test

import (
	"context"
	"log/slog"
	"slices"
	"testing"
	"time"

	"inbox-live/domain"
	"inbox-live/mocks"
	"inbox-live/projection"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func at(id, sender, receiver, body string, offset time.Duration) domain.Message {
	return domain.Message{ID: id, SenderID: sender, ReceiverID: receiver, Body: body, CreatedAt: t0.Add(offset)}
}

func profiles(ctrl *gomock.Controller, known ...string) *mocks.MockIProfileResolver {
	resolver := mocks.NewMockIProfileResolver(ctrl)
	resolver.EXPECT().ResolveProfile(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, userID string) (domain.Profile, bool) {
			if !slices.Contains(known, userID) {
				return domain.Profile{}, false
			}
			return domain.Profile{ID: userID, Username: userID}, true
		}).AnyTimes()
	return resolver
}

func peers(conversations []domain.Conversation) []string {
	return lo.Map(conversations, func(c domain.Conversation, _ int) string { return c.Peer.ID })
}

func TestInbox_Latest_Message_Per_Peer_Newest_First(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), profiles(ctrl, "B", "C"))

	// Given A->B at t1, A->C at t2, B->A at t3
	messages := []domain.Message{
		at("1", "A", "B", "t1", time.Second),
		at("2", "A", "C", "t2", 2*time.Second),
		at("3", "B", "A", "t3", 3*time.Second),
	}

	// When
	conversations := inbox.Conversations(context.Background(), "A", messages)

	// Then
	req.Equal([]string{"B", "C"}, peers(conversations))
	req.Equal("t3", conversations[0].LastMessage.Body)
	req.Equal("t2", conversations[1].LastMessage.Body)
}

func TestInbox_Input_Order_Does_Not_Matter(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), profiles(ctrl, "B", "C"))
	messages := []domain.Message{
		at("3", "B", "A", "t3", 3*time.Second),
		at("1", "A", "B", "t1", time.Second),
		at("2", "A", "C", "t2", 2*time.Second),
	}

	conversations := inbox.Conversations(context.Background(), "A", messages)

	req.Equal([]string{"B", "C"}, peers(conversations))
	req.Equal("3", conversations[0].LastMessage.ID)
}

func TestInbox_Equal_Timestamps_Fall_Back_To_Id(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), profiles(ctrl, "B", "C", "D"))

	// Given three peers whose latest messages share a timestamp,
	// and two messages with B sharing it too
	toC := at("a", "A", "C", "to C", time.Second)
	fromD := at("c", "D", "A", "from D", time.Second)
	toB := at("b1", "A", "B", "to B", time.Second)
	fromB := at("b0", "B", "A", "lower id, same time", time.Second)
	messages := []domain.Message{toC, fromD, toB, fromB}

	// When called repeatedly
	first := inbox.Conversations(context.Background(), "A", messages)
	second := inbox.Conversations(context.Background(), "A", messages)

	// Then the order is deterministic, highest id first
	req.Equal([]string{"D", "B", "C"}, peers(first))
	req.Equal(first, second)
	req.Equal(fromD, first[0].LastMessage)
	req.Equal(toB, first[1].LastMessage)
	req.Equal(toC, first[2].LastMessage)
}

func TestInbox_Empty_For_A_User_Without_Messages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), mocks.NewMockIProfileResolver(ctrl))

	conversations := inbox.Conversations(context.Background(), "A", nil)

	req.NotNil(conversations)
	req.Empty(conversations)
}

func TestInbox_Peer_Without_Profile_Is_Filtered_Out(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	// Given C's account was deleted
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), profiles(ctrl, "B"))
	messages := []domain.Message{
		at("1", "A", "B", "hi B", time.Second),
		at("2", "C", "A", "hi A", 2*time.Second),
	}

	// When
	conversations := inbox.Conversations(context.Background(), "A", messages)

	// Then
	req.Equal([]string{"B"}, peers(conversations))
}

func TestInbox_Messages_Not_Involving_The_Viewer_Are_Ignored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	inbox := projection.NewInbox(logs.GetLoggerFromLevel(slog.LevelDebug), profiles(ctrl, "B", "C"))
	messages := []domain.Message{
		at("1", "B", "C", "not for A", time.Second),
	}

	req.Empty(inbox.Conversations(context.Background(), "A", messages))
}

func TestHistory_Ascending_Between_Two_Users_Only(t *testing.T) {
	req := require.New(t)

	// Given
	messages := []domain.Message{
		at("4", "B", "A", "fourth", 4*time.Second),
		at("1", "A", "B", "first", time.Second),
		at("2", "A", "C", "other conversation", 2*time.Second),
		at("3", "B", "A", "third", 3*time.Second),
	}
	original := slices.Clone(messages)

	// When
	history := projection.History("A", "B", messages)

	// Then
	bodies := lo.Map(history, func(m domain.Message, _ int) string { return m.Body })
	req.Equal([]string{"first", "third", "fourth"}, bodies)
	req.Equal(original, messages)
	req.Equal(projection.History("B", "A", messages), history)
}

func TestComparators_Are_Inverse(t *testing.T) {
	req := require.New(t)
	older := at("1", "A", "B", "older", time.Second)
	newer := at("2", "A", "B", "newer", 2*time.Second)
	sameTimeHigherID := at("3", "A", "B", "same time", 2*time.Second)

	req.Equal(-1, projection.NewestFirst(newer, older))
	req.Equal(1, projection.OldestFirst(newer, older))
	req.Equal(-1, projection.NewestFirst(sameTimeHigherID, newer))
	req.Equal(-1, projection.OldestFirst(newer, sameTimeHigherID))
	req.Zero(projection.NewestFirst(newer, newer))
}
