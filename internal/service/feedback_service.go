package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"te-chatbot/internal/models"
	"te-chatbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
	logger       *zap.Logger
}

func NewFeedbackService(feedbackRepo *repository.FeedbackRepository, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		logger:       logger,
	}
}

func (s *FeedbackService) Submit(ctx context.Context, username, analysisID string, rating int, issueType, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	fb := &models.Feedback{
		ID:         uuid.New(),
		Username:   username,
		AnalysisID: analysisID,
		Rating:     rating,
		IssueType:  strings.TrimSpace(issueType),
		Comment:    sanitizeUTF8(strings.TrimSpace(comment)),
		CreatedAt:  time.Now(),
	}
	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		return err
	}

	s.logger.Info("Feedback submitted",
		zap.String("username", username),
		zap.Int("rating", rating),
	)
	return nil
}

func (s *FeedbackService) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats, err := s.feedbackRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageRating = math.Round(stats.AverageRating*100) / 100
	return stats, nil
}
