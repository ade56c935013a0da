package service

import (
	"context"
	"time"

	"myfitguide/internal/domain"

	"go.uber.org/zap"
)

// ProfileService reads the aggregated profile shown in the Shell
type ProfileService struct {
	gw       Gateway
	identity *IdentityService
	timeout  time.Duration
	logger   *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(gw Gateway, identity *IdentityService, timeout time.Duration, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		gw:       gw,
		identity: identity,
		timeout:  timeout,
		logger:   logger,
	}
}

// Fetch resolves the user id (explicit first, then the local cache) and
// fetches usuario/dieta/rutina. It is only called on demand.
func (s *ProfileService) Fetch(ctx context.Context, chatID int64, explicit domain.UserID) (*domain.AggregatedProfile, error) {
	userID, err := s.identity.Resolve(chatID, explicit)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	profile, err := s.gw.FetchProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to fetch profile",
			zap.Int64("chat_id", chatID),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return profile, nil
}
