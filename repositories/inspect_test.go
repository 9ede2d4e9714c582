package repositories

import (
	"testing"
	"time"

	"inbox-live/domain"

	"github.com/stretchr/testify/require"
)

func Test_Inspect_Mapper(t *testing.T) {
	req := require.New(t)
	message := domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Body: "hi", CreatedAt: time.Now().UTC()}
	user := domain.User{ID: "u1", Username: "alice", PasswordHash: "secret"}

	row := InspectMapper(conversationKey("alice", "bob", message), MarshalMessage(message))
	req.Equal("MESSAGE", row.Type)
	req.Equal("alice -> bob: hi", row.Detail)

	row = InspectMapper(userPrefix+user.ID, marshalUser(user))
	req.Equal("USER", row.Type)
	req.Equal("alice", row.Detail)
	req.NotContains(row.Detail, "secret")

	row = InspectMapper(InboxPrefix+"bob:broken", []byte{0xff})
	req.Contains(row.Detail, "decode failed")
}
