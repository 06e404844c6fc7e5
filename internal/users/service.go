package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// SessionRevoker invalidates live sessions kept in the session store.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) error
}

// Service handles user administration business logic.
type Service struct {
	repo     RepositoryPort
	sessions SessionRevoker
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, sessions SessionRevoker) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, email, fullName, password, role string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" {
		return nil, fmt.Errorf("%w: email and full name are required", httpx.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", httpx.ErrValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, email, fullName, string(hash), role)
}

// ChangePassword resets the target account's password and invalidates every
// live session it holds, forcing a fresh login with the new credential.
func (s *Service) ChangePassword(ctx context.Context, userID int64, newPassword string) error {
	if userID <= 0 {
		return fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", httpx.ErrValidation, MinPasswordLength)
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	return s.revokeSessions(ctx, userID)
}

// DeleteUser removes the account and all of its sessions.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.revokeSessions(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteSessions(ctx, userID); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, userID)
}

func (s *Service) revokeSessions(ctx context.Context, userID int64) error {
	if s.sessions == nil {
		return nil
	}
	ids, err := s.repo.ListSessionIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.sessions.Revoke(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
