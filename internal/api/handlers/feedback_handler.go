package handlers

import (
	"errors"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewFeedbackHandler(feedbackService *service.FeedbackService, activityService *service.ActivityService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		activityService: activityService,
		logger:          logger,
	}
}

// Submit godoc
// @Summary Submit feedback on an analysis
// @Tags feedback
// @Accept json
// @Produce json
// @Param request body dto.FeedbackRequest true "Feedback"
// @Success 200 {object} dto.FeedbackResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/feedback [post]
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	username := currentUsername(c)
	err := h.feedbackService.Submit(c.Context(), username, req.AnalysisID, req.Rating, req.IssueType, req.Comment)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRating) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		h.logger.Error("Failed to save feedback", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save feedback")
	}

	h.activityService.Log(c.Context(), username, models.ActionFeedback, req.AnalysisID)

	return c.JSON(dto.FeedbackResponse{
		Success: true,
		Message: "Thank you for your feedback",
	})
}
