package dto

import (
	"encoding/json"

	"te-chatbot/internal/receipt"
)

// AnalysisResult is the structured outcome of one ticket analysis.
type AnalysisResult struct {
	Result          string          `json:"result"` // PASS | REVIEW | FAIL
	ExpenseType     string          `json:"expense_type"`
	Justification   string          `json:"justification"`
	BasicValidation BasicValidation `json:"basic_validation"`
	AppliedRules    []AppliedRule   `json:"applied_rules"`
	ConfidenceScore float64         `json:"confidence_score"`
	Recommendations []string        `json:"recommendations"`
	Timestamp       string          `json:"timestamp"`
}

type BasicValidation struct {
	IsValid      bool     `json:"is_valid"`
	Status       string   `json:"status"` // approved | pending_review | error
	Issues       []string `json:"issues"`
	WithinLimits bool     `json:"within_limits"`
}

type AppliedRule struct {
	SheetName   string  `json:"sheet_name"`
	Country     string  `json:"country"`
	Currency    string  `json:"currency"`
	ExpenseType string  `json:"expense_type"`
	AmountLimit float64 `json:"amount_limit"`
}

type AnalyzeTicketResponse struct {
	Success        bool               `json:"success"`
	TicketInfo     receipt.TicketInfo `json:"ticket_info"`
	AnalysisResult AnalysisResult     `json:"analysis_result"`
	AnalysisID     string             `json:"analysis_id"`
	Timestamp      string             `json:"timestamp"`
}

type TicketPreviewResponse struct {
	Success              bool                      `json:"success"`
	TicketInfo           receipt.TicketInfo        `json:"ticket_info"`
	ExtractionConfidence float64                   `json:"extraction_confidence"`
	Receipt              receipt.NormalizedReceipt `json:"receipt"`
	ReceiptHTML          string                    `json:"receipt_html"`
}

type MultiTicketResult struct {
	Filename       string              `json:"filename"`
	TicketInfo     *receipt.TicketInfo `json:"ticket_info,omitempty"`
	AnalysisResult *AnalysisResult     `json:"analysis_result,omitempty"`
	Error          string              `json:"error,omitempty"`
}

type AnalyzeMultipleResponse struct {
	Success    bool                `json:"success"`
	Results    []MultiTicketResult `json:"results"`
	TotalFiles int                 `json:"total_files"`
}

type HistoryItem struct {
	ID             string          `json:"id"`
	Timestamp      string          `json:"timestamp"`
	User           string          `json:"user"`
	TicketFilename string          `json:"ticket_filename"`
	Question       string          `json:"question"`
	TicketInfo     json.RawMessage `json:"ticket_info"`
	AnalysisResult json.RawMessage `json:"analysis_result"`
}

type HistoryResponse struct {
	Success bool          `json:"success"`
	History []HistoryItem `json:"history"`
	Total   int           `json:"total"`
}
