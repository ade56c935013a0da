package service

import (
	"errors"
	"fmt"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"
	"myfitguide/internal/repository"

	"go.uber.org/zap"
)

// ErrNotIdentified means no user id is available from params or the local cache
var ErrNotIdentified = errors.New("usuario no identificado")

// IdentityService is the single place identity is resolved from the local profile cache
type IdentityService struct {
	cacheRepo repository.ProfileCacheRepository
	logger    *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(cacheRepo repository.ProfileCacheRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// Remember stores a login/registration response verbatim
func (s *IdentityService) Remember(chatID int64, raw []byte) error {
	if err := s.cacheRepo.Store(chatID, raw); err != nil {
		return fmt.Errorf("store profile cache: %w", err)
	}
	return nil
}

// Resolve returns explicit when set, else the id found in the chat's cached response.
// A missing or malformed cache entry yields ErrNotIdentified.
func (s *IdentityService) Resolve(chatID int64, explicit domain.UserID) (domain.UserID, error) {
	if !explicit.IsZero() {
		return explicit, nil
	}

	raw, err := s.cacheRepo.Load(chatID)
	if err != nil {
		s.logger.Error("Failed to read profile cache", zap.Int64("chat_id", chatID), zap.Error(err))
		return "", fmt.Errorf("%w: load profile cache: %v", ErrNotIdentified, err)
	}
	if len(raw) == 0 {
		return "", ErrNotIdentified
	}

	id, err := gateway.ExtractUserID(raw)
	if err != nil {
		s.logger.Warn("Profile cache entry has no identifier", zap.Int64("chat_id", chatID), zap.Error(err))
		return "", ErrNotIdentified
	}
	return id, nil
}

// Forget clears the chat's cached response
func (s *IdentityService) Forget(chatID int64) error {
	if err := s.cacheRepo.Clear(chatID); err != nil {
		return fmt.Errorf("clear profile cache: %w", err)
	}
	return nil
}
