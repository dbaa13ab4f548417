package repository

import (
	"context"

	"te-chatbot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AnalysisRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnalysisRepository(db *pgxpool.Pool, logger *zap.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AnalysisRepository) Create(ctx context.Context, rec *models.AnalysisRecord) error {
	query := squirrel.Insert("analyses").
		Columns("id", "username", "ticket_filename", "question", "ticket_info", "result", "created_at").
		Values(rec.ID, rec.Username, rec.TicketFilename, rec.Question, rec.TicketInfo, rec.Result, rec.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListForUser returns the most recent analyses. When all is true the
// username filter is skipped and every user's history is returned.
func (r *AnalysisRepository) ListForUser(ctx context.Context, username string, all bool, limit int) ([]models.AnalysisRecord, error) {
	query := squirrel.Select("id", "username", "ticket_filename", "question", "ticket_info", "result", "created_at").
		From("analyses").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	if !all {
		query = query.Where(squirrel.Eq{"username": username})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		if err := rows.Scan(
			&rec.ID, &rec.Username, &rec.TicketFilename, &rec.Question, &rec.TicketInfo, &rec.Result, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
