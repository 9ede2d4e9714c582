package domain

// Conversation is one inbox entry: a peer and the latest message exchanged with them.
// It is derived on demand and never stored.
type Conversation struct {
	Peer        Profile `json:"otherParticipant"`
	LastMessage Message `json:"lastMessage"`
}
