package service

import (
	"context"
	"errors"
	"fmt"

	"task-manager/internal/models"
	"task-manager/pkg/logger"

	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	DeleteWithTasks(ctx context.Context, id int) ([]int, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	VerifyDummy(plaintext string)
}

// UserService is the user directory: registration, authentication and
// account removal. Per-request lookup goes through auth.Resolver.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	cache  TaskCache
	rules  Rules
}

func NewUserService(repo UserRepository, hasher PasswordHasher, cache TaskCache, rules Rules) *UserService {
	if cache == nil {
		cache = NopCache{}
	}
	return &UserService{repo: repo, hasher: hasher, cache: cache, rules: rules}
}

// Register creates a user. The duplicate check runs first; the unique index
// still catches concurrent registrations of the same name.
func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return models.User{}, models.ErrDuplicateUsername
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}

	if err := s.rules.checkUsername(username); err != nil {
		return models.User{}, err
	}
	if err := s.rules.checkPassword(password); err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.repo.Create(ctx, username, hash)
	if err != nil {
		return models.User{}, err
	}
	logger.AuditLogger.Info("User registered", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate returns ErrInvalidCredentials when the user does not exist or
// the password is wrong. Both paths do one bcrypt comparison.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Delete removes the user and cascades to every task they own.
func (s *UserService) Delete(ctx context.Context, id int) error {
	taskIDs, err := s.repo.DeleteWithTasks(ctx, id)
	if err != nil {
		return err
	}
	for _, taskID := range taskIDs {
		s.cache.Evict(ctx, taskID)
	}
	logger.AuditLogger.Info("User deleted", zap.Int("user_id", id), zap.Int("tasks_removed", len(taskIDs)))
	return nil
}
