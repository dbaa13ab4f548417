package dto

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

type LogsResponse struct {
	Success bool       `json:"success"`
	Logs    []LogEntry `json:"logs"`
	Total   int        `json:"total"`
}

type LogsStats struct {
	Total   int `json:"total"`
	Users   int `json:"users"`
	Actions int `json:"actions"`
}

type LogsStatsResponse struct {
	Success bool      `json:"success"`
	Stats   LogsStats `json:"stats"`
}
