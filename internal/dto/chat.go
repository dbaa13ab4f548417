package dto

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}
