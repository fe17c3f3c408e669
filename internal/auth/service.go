package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"outlay/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Users is the account lookup contract the service needs from storage.
type Users interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*storage.User, error)
}

// Service registers and authenticates users.
type Service struct {
	users Users
}

func NewService(users Users) *Service {
	return &Service{users: users}
}

// Register creates an account and returns its id.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrInvalidCredentials
	}
	if len(password) < 8 {
		return 0, ErrWeakPassword
	}

	existing, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return 0, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, username, hash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// Login verifies credentials and returns the user id.
func (s *Service) Login(ctx context.Context, username, password string) (int64, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return 0, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}
