package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"te-chatbot/internal/receipt"

	"github.com/gen2brain/go-fitz"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// ticketSchema constrains what the LLM extraction may return. Anything that
// fails validation is discarded in favor of the heuristic parse.
const ticketSchema = `{
  "type": "object",
  "properties": {
    "vendor": {"type": "string"},
    "location": {"type": "string"},
    "city": {"type": "string"},
    "date": {"type": "string"},
    "currency": {"type": "string", "pattern": "^[A-Za-z]{3}$"},
    "amount": {"type": "number"},
    "total_amount": {"type": "number"},
    "vat_rate": {"type": "number", "minimum": 0, "maximum": 100},
    "payment_method": {"type": "string"},
    "category": {"type": "string"},
    "ticket_number": {"type": "string"},
    "merchant_id": {"type": "string"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "qty": {"type": "number", "minimum": 0},
          "unit_price": {"type": "number"}
        }
      }
    }
  },
  "additionalProperties": true
}`

type ExtractService struct {
	llmService *LLMService
	schema     *jsonschema.Schema
	logger     *zap.Logger
}

func NewExtractService(llmService *LLMService, logger *zap.Logger) (*ExtractService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ticket.json", strings.NewReader(ticketSchema)); err != nil {
		return nil, fmt.Errorf("failed to add ticket schema: %w", err)
	}
	schema, err := compiler.Compile("ticket.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile ticket schema: %w", err)
	}

	return &ExtractService{
		llmService: llmService,
		schema:     schema,
		logger:     logger,
	}, nil
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".tiff": true, ".gif": true, ".webp": true,
}

var textExts = map[string]bool{
	".txt": true, ".csv": true,
}

// Extract reads a ticket file and returns structured info plus an extraction
// confidence in [0,1].
func (s *ExtractService) Extract(ctx context.Context, data []byte, filename string) (receipt.TicketInfo, float64, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var fileType string
	var err error

	switch {
	case imageExts[ext]:
		fileType = "image"
		text, err = s.visionText(ctx, data, filename)
	case ext == ".pdf":
		fileType = "pdf"
		text, err = s.pdfText(data)
		if err != nil || strings.TrimSpace(text) == "" {
			// Scanned PDFs carry no text layer, fall back to vision.
			text, err = s.visionText(ctx, data, filename)
		}
	case textExts[ext]:
		fileType = "text"
		text = sanitizeUTF8(string(data))
	default:
		return receipt.TicketInfo{}, 0, fmt.Errorf("unsupported file format: %s (supported: jpg, jpeg, png, bmp, tiff, gif, webp, pdf, txt, csv)", ext)
	}
	if err != nil {
		return receipt.TicketInfo{}, 0, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return receipt.TicketInfo{}, 0, fmt.Errorf("no text extracted from %s", filename)
	}

	info, confidence := parseTicketText(text, filename, fileType)

	// LLM extraction is more reliable when it validates. Merge it over the
	// heuristic result, keeping heuristic values the model omitted.
	if llmInfo, ok := s.llmExtract(ctx, text); ok {
		info = mergeTicketInfo(info, llmInfo)
		confidence = confidence*0.4 + 0.6
	}

	s.logger.Info("Ticket extraction completed",
		zap.String("file", filename),
		zap.String("type", fileType),
		zap.Float64("confidence", confidence),
	)

	return info, confidence, nil
}

func (s *ExtractService) pdfText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	return sanitizeUTF8(strings.TrimSpace(textBuilder.String())), nil
}

// visionText stages the upload in a temp file so the Vision client can infer
// the MIME type from the extension.
func (s *ExtractService) visionText(ctx context.Context, data []byte, filename string) (string, error) {
	if s.llmService == nil {
		return "", fmt.Errorf("vision extraction is not available")
	}
	tmpFile, err := os.CreateTemp("", "ticket-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, bytes.NewReader(data)); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	text, err := s.llmService.ExtractTextFromImage(ctx, tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to extract text with GigaChat Vision: %w", err)
	}
	return sanitizeUTF8(text), nil
}

func (s *ExtractService) llmExtract(ctx context.Context, text string) (receipt.TicketInfo, bool) {
	if s.llmService == nil {
		return receipt.TicketInfo{}, false
	}
	raw, err := s.llmService.ExtractTicketJSON(ctx, text)
	if err != nil {
		s.logger.Warn("LLM ticket extraction failed", zap.Error(err))
		return receipt.TicketInfo{}, false
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("LLM ticket extraction returned invalid JSON", zap.Error(err))
		return receipt.TicketInfo{}, false
	}
	if err := s.schema.Validate(doc); err != nil {
		s.logger.Warn("LLM ticket extraction failed schema validation", zap.Error(err))
		return receipt.TicketInfo{}, false
	}

	var info receipt.TicketInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return receipt.TicketInfo{}, false
	}
	return info, true
}

// mergeTicketInfo overlays llm values on top of the heuristic base. The base
// keeps filename, file type and raw text.
func mergeTicketInfo(base, llm receipt.TicketInfo) receipt.TicketInfo {
	out := base
	if llm.Vendor != "" {
		out.Vendor = llm.Vendor
	}
	if llm.Location != "" {
		out.Location = llm.Location
	}
	if llm.City != "" {
		out.City = llm.City
	}
	if llm.Currency != "" {
		out.Currency = strings.ToUpper(llm.Currency)
	}
	if llm.VATRate != nil {
		out.VATRate = llm.VATRate
	}
	if llm.PaymentMethod != "" {
		out.PaymentMethod = llm.PaymentMethod
	}
	if llm.Category != "" {
		out.Category = strings.ToUpper(llm.Category)
	}
	if llm.Date != "" {
		out.Date = llm.Date
	}
	if llm.Amount != nil {
		out.Amount = llm.Amount
	}
	if llm.TotalAmount != nil {
		out.TotalAmount = llm.TotalAmount
	}
	if llm.TicketNumber != "" {
		out.TicketNumber = llm.TicketNumber
	}
	if llm.MerchantID != "" {
		out.MerchantID = llm.MerchantID
	}
	if len(llm.Items) > 0 {
		out.Items = llm.Items
	}
	return out
}
