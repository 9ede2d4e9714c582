// Package domain contains core concepts of the direct messaging system.
// This file defines Message records and related rules.
// Messages are immutable once created by the store.
package domain

import (
	"time"
)

// Message represents an immutable direct message between two users.
// The JSON shape is both the persisted form returned over HTTP and the
// payload pushed over live connections.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Involves reports whether userID is the sender or the receiver.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// PeerOf returns the other participant as seen from viewerID.
func (m Message) PeerOf(viewerID string) string {
	if m.SenderID == viewerID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Between reports whether the message was exchanged by a and b, in either direction.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// After orders messages by creation time, falling back to the id on equal timestamps.
func (m Message) After(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID > other.ID
	}
	return m.CreatedAt.After(other.CreatedAt)
}
