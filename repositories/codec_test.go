package repositories

import (
	"testing"
	"time"

	"inbox-live/domain"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func Test_Unknown_Fields_Are_Skipped(t *testing.T) {
	req := require.New(t)

	// Given a record written by a newer version with an extra field
	message := domain.Message{
		ID:         "0190c6f4-0000-7000-8000-000000000001",
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "hi",
		CreatedAt:  time.Date(2024, 5, 1, 8, 30, 0, 42, time.UTC),
	}
	b := MarshalMessage(message)
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendString(b, "reaction")

	// When
	decoded, err := UnmarshalMessage(b)

	// Then
	req.NoError(err)
	req.Equal(message, decoded)
}

func Test_Truncated_Record_Is_Rejected(t *testing.T) {
	req := require.New(t)
	b := MarshalMessage(domain.Message{ID: "id", Body: "a body long enough", CreatedAt: time.Now()})

	_, err := UnmarshalMessage(b[:len(b)/2])

	req.Error(err)
}
