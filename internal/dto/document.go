package dto

import "te-chatbot/internal/models"

type TEStatusResponse struct {
	DocumentsLoaded       bool   `json:"documents_loaded"`
	LastLoaded            string `json:"last_loaded,omitempty"`
	ExcelRulesCount       int    `json:"excel_rules_count"`
	WordPoliciesAvailable bool   `json:"word_policies_available"`
	WordPoliciesLength    int    `json:"word_policies_length"`
	Timestamp             string `json:"timestamp"`
}

type LoadDocumentsResponse struct {
	Success         bool   `json:"success"`
	ExcelRulesCount int    `json:"excel_rules_count"`
	LoadedAt        string `json:"loaded_at"`
}

type ExcelRulesResponse struct {
	Success    bool                     `json:"success"`
	Rules      map[string][]models.Rule `json:"rules"`
	LastLoaded string                   `json:"last_loaded"`
}

type WordPoliciesResponse struct {
	Success      bool   `json:"success"`
	PoliciesText string `json:"policies_text"`
	LastLoaded   string `json:"last_loaded"`
}
