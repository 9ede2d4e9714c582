//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"inbox-live/auth"
	"inbox-live/contract"
	"inbox-live/domain"
	"inbox-live/errors"
)

type IAuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (Session, error)
	Profile(ctx context.Context, userID string) (domain.Profile, error)
}

// Session is returned on register and login.
type Session struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

type AuthService struct {
	log    *slog.Logger
	users  contract.IUserStore
	tokens *auth.TokenManager
}

func NewAuthService(log *slog.Logger, users contract.IUserStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req auth.RegisterRequest) (Session, error) {
	// 1. Business rules are checked before any expensive hashing
	if err := auth.ValidateRegister(req); err != nil {
		return Session{}, err
	}

	// 2. The repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. ErrUserAlreadyExists propagates when the username is taken
	user, err := s.users.CreateUser(ctx, req.Username, hashedPassword, req.AvatarRef)
	if err != nil {
		return Session{}, err
	}
	s.log.InfoContext(ctx, "User registered", "user_id", user.ID)

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req auth.LoginRequest) (Session, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return Session{}, err
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if !stderrors.Is(err, errors.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "Failed to load user", "error", err)
		}
		// Same answer for unknown users and wrong passwords
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return user.Profile(), nil
}

func (s *AuthService) issue(user domain.User) (Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Profile()}, nil
}
