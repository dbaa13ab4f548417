package models

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID         uuid.UUID `db:"id"`
	Username   string    `db:"username"`
	AnalysisID string    `db:"analysis_id"`
	Rating     int       `db:"rating"`
	IssueType  string    `db:"issue_type"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`
}

// FeedbackStats aggregates submitted feedback for the admin panel.
type FeedbackStats struct {
	TotalFeedback      int            `json:"total_feedback"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[int]int    `json:"rating_distribution"`
	CommonIssues       map[string]int `json:"common_issues"`
}
