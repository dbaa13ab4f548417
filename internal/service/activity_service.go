package service

import (
	"context"
	"time"

	"te-chatbot/internal/models"
	"te-chatbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityService is the audit trail. Log failures are reported but never
// fail the calling request.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

func (s *ActivityService) Log(ctx context.Context, username, action, details string) {
	entry := &models.ActivityLog{
		ID:        uuid.New(),
		Username:  username,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write activity log",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.activityRepo.ListRecent(ctx, limit)
}

func (s *ActivityService) Stats(ctx context.Context) (total, users, actions int, err error) {
	return s.activityRepo.Stats(ctx)
}
