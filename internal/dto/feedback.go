package dto

import "te-chatbot/internal/models"

type FeedbackRequest struct {
	AnalysisID string `json:"analysis_id"`
	Rating     int    `json:"rating"`
	IssueType  string `json:"issue_type"`
	Comment    string `json:"comment"`
}

type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type FeedbackStatsResponse struct {
	Success bool                 `json:"success"`
	Stats   models.FeedbackStats `json:"stats"`
}
