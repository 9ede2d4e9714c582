// Package domain contains core concepts of the direct messaging system.
// This file defines the displayable identity of a participant.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Profile is the public face of a registered account.
type Profile struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	AvatarRef string `json:"profilePicture,omitempty"`
}

// User is an account as held by the user store.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	AvatarRef    string
	CreatedAt    time.Time
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, AvatarRef: u.AvatarRef}
}
