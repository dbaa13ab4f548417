package handlers

import (
	"time"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService     *service.AuthService
	activityService *service.ActivityService
	feedbackService *service.FeedbackService
	logger          *zap.Logger
}

func NewAdminHandler(
	authService *service.AuthService,
	activityService *service.ActivityService,
	feedbackService *service.FeedbackService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:     authService,
		activityService: activityService,
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// Logs godoc
// @Summary Recent activity log
// @Tags admin
// @Produce json
// @Param limit query int false "Limit" default(100)
// @Success 200 {object} dto.LogsResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/logs [get]
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	entries, err := h.activityService.Recent(c.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list activity logs", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load logs")
	}

	logs := make([]dto.LogEntry, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, dto.LogEntry{
			Timestamp: entry.CreatedAt.Format(time.RFC3339),
			Username:  entry.Username,
			Action:    entry.Action,
			Details:   entry.Details,
		})
	}

	return c.JSON(dto.LogsResponse{
		Success: true,
		Logs:    logs,
		Total:   len(logs),
	})
}

// LogsStats godoc
// @Summary Activity log statistics
// @Tags admin
// @Produce json
// @Success 200 {object} dto.LogsStatsResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/logs-stats [get]
func (h *AdminHandler) LogsStats(c *fiber.Ctx) error {
	total, users, actions, err := h.activityService.Stats(c.Context())
	if err != nil {
		h.logger.Error("Failed to compute log stats", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load log stats")
	}

	return c.JSON(dto.LogsStatsResponse{
		Success: true,
		Stats: dto.LogsStats{
			Total:   total,
			Users:   users,
			Actions: actions,
		},
	})
}

// Users godoc
// @Summary List registered users
// @Tags admin
// @Produce json
// @Success 200 {object} dto.UsersResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/users [get]
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(c.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load users")
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.UserResponse{
			Username:  user.Username,
			FullName:  user.FullName,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(dto.UsersResponse{
		Success: true,
		Users:   out,
	})
}

// FeedbackStats godoc
// @Summary Aggregated feedback statistics
// @Tags admin
// @Produce json
// @Success 200 {object} dto.FeedbackStatsResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/feedback-stats [get]
func (h *AdminHandler) FeedbackStats(c *fiber.Ctx) error {
	stats, err := h.feedbackService.Stats(c.Context())
	if err != nil {
		h.logger.Error("Failed to compute feedback stats", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load feedback stats")
	}

	return c.JSON(dto.FeedbackStatsResponse{
		Success: true,
		Stats:   *stats,
	})
}
