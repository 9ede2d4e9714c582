package repositories

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"inbox-live/domain"
	"inbox-live/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix     = "user:"
	usernamePrefix = "username:"
)

// UserRepository stores accounts and answers profile lookups.
// Usernames are unique, compared case-insensitively.
type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// CreateUser persists a new account and returns it with its generated id.
func (u *UserRepository) CreateUser(ctx context.Context, username, passwordHash, avatarRef string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		AvatarRef:    avatarRef,
		CreatedAt:    time.Now().UTC(),
	}

	err := u.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(usernamePrefix + strings.ToLower(username))
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userPrefix+user.ID), marshalUser(user))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernamePrefix + strings.ToLower(username)))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, notFound(err)
}

func (u *UserRepository) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, notFound(err)
}

// ResolveProfile reports false when the user does not exist or cannot be read.
func (u *UserRepository) ResolveProfile(ctx context.Context, userID string) (domain.Profile, bool) {
	user, err := u.GetUserByID(ctx, userID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrUserNotFound) {
			u.log.WarnContext(ctx, "Profile lookup failed", "user_id", userID, "error", err)
		}
		return domain.Profile{}, false
	}
	return user.Profile(), true
}

func getUser(txn *badger.Txn, id string) (domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + id))
	if err != nil {
		return domain.User{}, err
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = unmarshalUser(val)
		return err
	})
	return user, err
}

func notFound(err error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	return err
}
