package service

import (
	"myfitguide/internal/repository"

	"go.uber.org/zap"
)

// MaintenanceService handles cleanup of the local profile cache
type MaintenanceService struct {
	cacheRepo     repository.ProfileCacheRepository
	retentionDays int
	logger        *zap.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(cacheRepo repository.ProfileCacheRepository, retentionDays int, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		cacheRepo:     cacheRepo,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// CleanupStaleProfiles removes cache entries not updated within the retention window
func (s *MaintenanceService) CleanupStaleProfiles() error {
	s.logger.Info("Starting profile cache cleanup", zap.Int("retention_days", s.retentionDays))

	deleted, err := s.cacheRepo.CleanStale(s.retentionDays)
	if err != nil {
		s.logger.Error("Failed to clean profile cache", zap.Error(err))
		return err
	}

	s.logger.Info("Cleanup completed", zap.Int64("deleted", deleted))
	return nil
}
