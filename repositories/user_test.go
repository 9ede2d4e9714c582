package repositories

import (
	"context"
	"log/slog"
	"testing"

	"inbox-live/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func Test_Create_And_Fetch_User(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	// When
	created, err := repository.CreateUser(ctx, "Alice", "hash", "avatars/alice.png")
	req.NoError(err)

	// Then
	byID, err := repository.GetUserByID(ctx, created.ID)
	req.NoError(err)
	req.Equal(created, byID)

	byName, err := repository.GetUserByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)
	req.Equal("hash", byName.PasswordHash)
}

func Test_Username_Must_Be_Unique(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given
	_, err := repository.CreateUser(ctx, "bob", "hash", "")
	req.NoError(err)

	// When
	_, err = repository.CreateUser(ctx, "BOB", "other", "")

	// Then
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Unknown_User_Is_Not_Found(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	_, err := repository.GetUserByID(ctx, "missing")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetUserByUsername(ctx, "missing")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Resolve_Profile(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	created, err := repository.CreateUser(ctx, "carol", "hash", "avatars/carol.png")
	req.NoError(err)

	// When
	profile, ok := repository.ResolveProfile(ctx, created.ID)

	// Then
	req.True(ok)
	req.Equal(created.ID, profile.ID)
	req.Equal("carol", profile.Username)
	req.Equal("avatars/carol.png", profile.AvatarRef)

	_, ok = repository.ResolveProfile(ctx, "deleted-user")
	req.False(ok)
}
