package auth

import (
	"testing"
	"time"

	"inbox-live/errors"

	"github.com/stretchr/testify/require"
)

func TestToken_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("test-secret", time.Hour)

	token, err := tokens.Generate("user-123", "alice")
	req.NoError(err)

	claims, err := tokens.Validate(token)
	req.NoError(err)
	req.Equal("user-123", claims.UserID)
	req.Equal("alice", claims.Username)
	req.Equal("user-123", claims.Subject)
}

func TestToken_Rejects_Other_Secret(t *testing.T) {
	req := require.New(t)
	token, err := NewTokenManager("secret-a", time.Hour).Generate("user-123", "alice")
	req.NoError(err)

	_, err = NewTokenManager("secret-b", time.Hour).Validate(token)

	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestToken_Rejects_Expired(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager("test-secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.Generate("user-123", "alice")
	req.NoError(err)

	tokens.now = time.Now
	_, err = tokens.Validate(token)

	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestToken_Rejects_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := NewTokenManager("test-secret", time.Hour).Validate("invalid-token-string")

	req.ErrorIs(err, errors.ErrUnauthenticated)
}
