package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	policyService   *service.PolicyService
	activityService *service.ActivityService
	maxFileSize     int64
	logger          *zap.Logger
}

func NewDocumentHandler(policyService *service.PolicyService, activityService *service.ActivityService, maxFileSize int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		policyService:   policyService,
		activityService: activityService,
		maxFileSize:     maxFileSize,
		logger:          logger,
	}
}

func (h *DocumentHandler) readUpload(file *multipart.FileHeader) ([]byte, error) {
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

// LoadDocuments godoc
// @Summary Load policy documents
// @Description Replace the active expense rules (Excel) and policy text (Word)
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param excel_file formData file true "Expense rules workbook (.xlsx)"
// @Param word_file formData file true "Policy document (.docx)"
// @Success 200 {object} dto.LoadDocumentsResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/load-te-documents [post]
func (h *DocumentHandler) LoadDocuments(c *fiber.Ctx) error {
	excelFile, err := c.FormFile("excel_file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Excel rules file is required")
	}
	wordFile, err := c.FormFile("word_file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Word policies file is required")
	}

	excelData, err := h.readUpload(excelFile)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}
	wordData, err := h.readUpload(wordFile)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	count, err := h.policyService.LoadFromUpload(excelData, wordData)
	if err != nil {
		h.logger.Error("Failed to load policy documents", zap.Error(err))
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	h.activityService.Log(c.Context(), currentUsername(c), models.ActionDocumentsLoad,
		fmt.Sprintf("%s + %s (%d rules)", excelFile.Filename, wordFile.Filename, count))

	return c.JSON(dto.LoadDocumentsResponse{
		Success:         true,
		ExcelRulesCount: count,
		LoadedAt:        h.policyService.LastLoaded().Format(time.RFC3339),
	})
}

// Status godoc
// @Summary Policy documents status
// @Description Report whether policy documents are loaded and how many rules they carry
// @Tags documents
// @Produce json
// @Success 200 {object} dto.TEStatusResponse
// @Router /api/te-status [get]
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	status := h.policyService.Status()

	resp := dto.TEStatusResponse{
		DocumentsLoaded:       status.DocumentsLoaded,
		ExcelRulesCount:       status.ExcelRulesCount,
		WordPoliciesAvailable: status.WordPoliciesAvailable,
		WordPoliciesLength:    status.WordPoliciesLength,
		Timestamp:             time.Now().Format(time.RFC3339),
	}
	if status.DocumentsLoaded {
		resp.LastLoaded = status.LastLoaded.Format(time.RFC3339)
	}

	return c.JSON(resp)
}

// ExcelRules godoc
// @Summary View the loaded expense rules
// @Tags documents
// @Produce json
// @Success 200 {object} dto.ExcelRulesResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/view-excel-rules [get]
func (h *DocumentHandler) ExcelRules(c *fiber.Ctx) error {
	status := h.policyService.Status()
	if !status.DocumentsLoaded {
		return errorJSON(c, fiber.StatusNotFound, "No policy documents loaded")
	}

	return c.JSON(dto.ExcelRulesResponse{
		Success:    true,
		Rules:      h.policyService.Rules(),
		LastLoaded: h.policyService.LastLoaded().Format(time.RFC3339),
	})
}

// WordPolicies godoc
// @Summary View the loaded policy text
// @Tags documents
// @Produce json
// @Success 200 {object} dto.WordPoliciesResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/view-word-policies [get]
func (h *DocumentHandler) WordPolicies(c *fiber.Ctx) error {
	text := h.policyService.PoliciesText()
	if text == "" {
		return errorJSON(c, fiber.StatusNotFound, "No policy documents loaded")
	}

	return c.JSON(dto.WordPoliciesResponse{
		Success:      true,
		PoliciesText: text,
		LastLoaded:   h.policyService.LastLoaded().Format(time.RFC3339),
	})
}
