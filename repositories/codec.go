package repositories

import (
	"inbox-live/domain"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored as protobuf messages laid out as in proto/storage/storage.proto.
// They are encoded field by field so unknown fields written by newer versions are skipped.

const (
	messageID         protowire.Number = 1
	messageSenderID   protowire.Number = 2
	messageReceiverID protowire.Number = 3
	messageBody       protowire.Number = 4
	messageCreatedAt  protowire.Number = 5
)

const (
	userID           protowire.Number = 1
	userUsername     protowire.Number = 2
	userPasswordHash protowire.Number = 3
	userAvatarRef    protowire.Number = 4
	userCreatedAt    protowire.Number = 5
)

func MarshalMessage(m domain.Message) []byte {
	b := make([]byte, 0, 64+len(m.Body))
	b = appendString(b, messageID, m.ID)
	b = appendString(b, messageSenderID, m.SenderID)
	b = appendString(b, messageReceiverID, m.ReceiverID)
	b = appendString(b, messageBody, m.Body)
	b = appendTime(b, messageCreatedAt, m.CreatedAt)
	return b
}

func UnmarshalMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	strings := map[protowire.Number]*string{
		messageID:         &m.ID,
		messageSenderID:   &m.SenderID,
		messageReceiverID: &m.ReceiverID,
		messageBody:       &m.Body,
	}
	err := consumeFields(b, strings, map[protowire.Number]*time.Time{messageCreatedAt: &m.CreatedAt})
	return m, err
}

func marshalUser(u domain.User) []byte {
	var b []byte
	b = appendString(b, userID, u.ID)
	b = appendString(b, userUsername, u.Username)
	b = appendString(b, userPasswordHash, u.PasswordHash)
	b = appendString(b, userAvatarRef, u.AvatarRef)
	b = appendTime(b, userCreatedAt, u.CreatedAt)
	return b
}

func unmarshalUser(b []byte) (domain.User, error) {
	var u domain.User
	strings := map[protowire.Number]*string{
		userID:           &u.ID,
		userUsername:     &u.Username,
		userPasswordHash: &u.PasswordHash,
		userAvatarRef:    &u.AvatarRef,
	}
	err := consumeFields(b, strings, map[protowire.Number]*time.Time{userCreatedAt: &u.CreatedAt})
	return u, err
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// Times are kept as unix nanoseconds.
func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(t.UnixNano()))
}

func consumeFields(b []byte, strings map[protowire.Number]*string, times map[protowire.Number]*time.Time) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && strings[num] != nil:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			*strings[num] = v
			b = b[n:]
		case typ == protowire.VarintType && times[num] != nil:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			*times[num] = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}
