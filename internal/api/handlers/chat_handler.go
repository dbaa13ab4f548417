package handlers

import (
	"time"
	"unicode/utf8"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	analyzerService *service.AnalyzerService
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewChatHandler(analyzerService *service.AnalyzerService, activityService *service.ActivityService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		analyzerService: analyzerService,
		activityService: activityService,
		logger:          logger,
	}
}

// Chat godoc
// @Summary Ask the T&E assistant
// @Description Answer a policy question grounded in the loaded documents
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Message == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Message is required")
	}

	username := currentUsername(c)

	answer, err := h.analyzerService.AnswerQuestion(c.Context(), req.Message)
	if err != nil {
		h.logger.Error("Chat failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate a response")
	}

	h.activityService.Log(c.Context(), username, models.ActionChatMessage, truncate(req.Message, 200))

	return c.JSON(dto.ChatResponse{
		Success:   true,
		Response:  answer,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// truncate caps s at n bytes without cutting a UTF-8 sequence in half.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
