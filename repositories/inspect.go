package repositories

import (
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders stored records for the badger inspector.
// Index keys carry the same encoded message as the pair key.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	switch {
	case strings.HasPrefix(key, ConversationPrefix), strings.HasPrefix(key, InboxPrefix):
		message, err := UnmarshalMessage(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("%s -> %s: %s", message.SenderID, message.ReceiverID, message.Body)
	case strings.HasPrefix(key, userPrefix):
		user, err := unmarshalUser(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "USER"
		row.Detail = user.Username
	case strings.HasPrefix(key, usernamePrefix):
		row.Type = "USERNAME"
		row.Detail = string(val)
	}
	return row
}
