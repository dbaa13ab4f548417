package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/receipt"
	"te-chatbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TicketHandler struct {
	extractService  *service.ExtractService
	analyzerService *service.AnalyzerService
	activityService *service.ActivityService
	maxFileSize     int64
	logger          *zap.Logger
}

func NewTicketHandler(
	extractService *service.ExtractService,
	analyzerService *service.AnalyzerService,
	activityService *service.ActivityService,
	maxFileSize int64,
	logger *zap.Logger,
) *TicketHandler {
	return &TicketHandler{
		extractService:  extractService,
		analyzerService: analyzerService,
		activityService: activityService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

func (h *TicketHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > h.maxFileSize {
		return nil, fmt.Errorf("file %q exceeds the %d MB limit", file.Filename, h.maxFileSize/(1024*1024))
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()
	return io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
}

// AnalyzeTicket godoc
// @Summary Analyze an expense ticket
// @Description Extract ticket data and check it against the loaded expense rules
// @Tags tickets
// @Accept multipart/form-data
// @Produce json
// @Param ticket_file formData file true "Ticket file (image, PDF, txt or csv)"
// @Param question formData string false "Optional question about the ticket"
// @Success 200 {object} dto.AnalyzeTicketResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/analyze-ticket [post]
func (h *TicketHandler) AnalyzeTicket(c *fiber.Ctx) error {
	file, err := c.FormFile("ticket_file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Ticket file is required")
	}

	data, err := h.readUpload(file)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	question := c.FormValue("question")
	username := currentUsername(c)

	info, _, err := h.extractService.Extract(c.Context(), data, file.Filename)
	if err != nil {
		h.logger.Error("Ticket extraction failed", zap.String("file", file.Filename), zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	result, analysisID, err := h.analyzerService.AnalyzeTicket(c.Context(), username, info, question)
	if err != nil {
		h.logger.Error("Ticket analysis failed", zap.String("file", file.Filename), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to analyze ticket")
	}

	h.activityService.Log(c.Context(), username, models.ActionTicketAnalysis, file.Filename)

	// The raw OCR text is internal, it never leaves the API.
	info.RawText = ""

	return c.JSON(dto.AnalyzeTicketResponse{
		Success:        true,
		TicketInfo:     info,
		AnalysisResult: result,
		AnalysisID:     analysisID,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
}

// TicketPreview godoc
// @Summary Preview a ticket as a normalized receipt
// @Description Extract ticket data and render the standardized receipt view
// @Tags tickets
// @Accept multipart/form-data
// @Produce json
// @Param ticket_file formData file true "Ticket file (image, PDF, txt or csv)"
// @Success 200 {object} dto.TicketPreviewResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/ticket-preview [post]
func (h *TicketHandler) TicketPreview(c *fiber.Ctx) error {
	file, err := c.FormFile("ticket_file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Ticket file is required")
	}

	data, err := h.readUpload(file)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	username := currentUsername(c)

	info, confidence, err := h.extractService.Extract(c.Context(), data, file.Filename)
	if err != nil {
		h.logger.Error("Ticket extraction failed", zap.String("file", file.Filename), zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	normalized := receipt.Compute(info, confidence)
	receiptHTML, err := receipt.Render(normalized)
	if err != nil {
		h.logger.Error("Receipt rendering failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to render receipt")
	}

	h.activityService.Log(c.Context(), username, models.ActionTicketPreview, file.Filename)

	info.RawText = ""

	return c.JSON(dto.TicketPreviewResponse{
		Success:              true,
		TicketInfo:           info,
		ExtractionConfidence: confidence,
		Receipt:              normalized,
		ReceiptHTML:          receiptHTML,
	})
}

// AnalyzeMultipleTickets godoc
// @Summary Analyze several tickets at once
// @Description Run the ticket analysis for every uploaded file; per-file failures do not abort the batch
// @Tags tickets
// @Accept multipart/form-data
// @Produce json
// @Param tickets formData file true "Ticket files"
// @Success 200 {object} dto.AnalyzeMultipleResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/analyze-multiple-tickets [post]
func (h *TicketHandler) AnalyzeMultipleTickets(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Multipart form is required")
	}

	files := form.File["tickets"]
	if len(files) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "At least one ticket file is required")
	}

	username := currentUsername(c)
	results := make([]dto.MultiTicketResult, 0, len(files))

	for _, file := range files {
		item := dto.MultiTicketResult{Filename: file.Filename}

		data, err := h.readUpload(file)
		if err != nil {
			item.Error = err.Error()
			results = append(results, item)
			continue
		}

		info, _, err := h.extractService.Extract(c.Context(), data, file.Filename)
		if err != nil {
			item.Error = err.Error()
			results = append(results, item)
			continue
		}

		result, _, err := h.analyzerService.AnalyzeTicket(c.Context(), username, info, "")
		if err != nil {
			item.Error = err.Error()
			results = append(results, item)
			continue
		}

		info.RawText = ""
		item.TicketInfo = &info
		item.AnalysisResult = &result
		results = append(results, item)
	}

	h.activityService.Log(c.Context(), username, models.ActionTicketAnalysis,
		fmt.Sprintf("batch of %d files", len(files)))

	return c.JSON(dto.AnalyzeMultipleResponse{
		Success:    true,
		Results:    results,
		TotalFiles: len(files),
	})
}

// AnalysisHistory godoc
// @Summary List past analyses
// @Description Return the caller's analysis history; admins see every user's
// @Tags tickets
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} dto.HistoryResponse
// @Router /api/analysis-history [get]
func (h *TicketHandler) AnalysisHistory(c *fiber.Ctx) error {
	username := currentUsername(c)
	limit := c.QueryInt("limit", 20)

	records, err := h.analyzerService.History(c.Context(), username, isAdmin(c), limit)
	if err != nil {
		h.logger.Error("Failed to list analysis history", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load history")
	}

	history := make([]dto.HistoryItem, 0, len(records))
	for _, rec := range records {
		history = append(history, dto.HistoryItem{
			ID:             rec.ID.String(),
			Timestamp:      rec.CreatedAt.Format(time.RFC3339),
			User:           rec.Username,
			TicketFilename: rec.TicketFilename,
			Question:       rec.Question,
			TicketInfo:     rec.TicketInfo,
			AnalysisResult: rec.Result,
		})
	}

	return c.JSON(dto.HistoryResponse{
		Success: true,
		History: history,
		Total:   len(history),
	})
}
