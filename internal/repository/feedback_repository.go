package repository

import (
	"context"

	"te-chatbot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type FeedbackRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewFeedbackRepository(db *pgxpool.Pool, logger *zap.Logger) *FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := squirrel.Insert("feedback").
		Columns("id", "analysis_id", "username", "rating", "issue_type", "comment", "created_at").
		Values(fb.ID, fb.AnalysisID, fb.Username, fb.Rating, fb.IssueType, fb.Comment, fb.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *FeedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{
		RatingDistribution: make(map[int]int),
		CommonIssues:       make(map[string]int),
	}

	totalQuery := squirrel.Select("COUNT(*)", "COALESCE(AVG(rating), 0)").From("feedback")
	sql, args, err := totalQuery.ToSql()
	if err != nil {
		return nil, err
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&stats.TotalFeedback, &stats.AverageRating); err != nil {
		return nil, err
	}

	ratingQuery := squirrel.Select("rating", "COUNT(*)").
		From("feedback").
		GroupBy("rating")
	sql, args, err = ratingQuery.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		stats.RatingDistribution[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	issueQuery := squirrel.Select("issue_type", "COUNT(*)").
		From("feedback").
		Where(squirrel.NotEq{"issue_type": ""}).
		GroupBy("issue_type").
		PlaceholderFormat(squirrel.Dollar)
	sql, args, err = issueQuery.ToSql()
	if err != nil {
		return nil, err
	}
	issueRows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer issueRows.Close()
	for issueRows.Next() {
		var issue string
		var count int
		if err := issueRows.Scan(&issue, &count); err != nil {
			return nil, err
		}
		stats.CommonIssues[issue] = count
	}

	return stats, issueRows.Err()
}
