package repository

import (
	"context"

	"te-chatbot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ActivityRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewActivityRepository(db *pgxpool.Pool, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ActivityRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	query := squirrel.Insert("activity_logs").
		Columns("id", "username", "action", "details", "created_at").
		Values(log.ID, log.Username, log.Action, log.Details, log.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	query := squirrel.Select("id", "username", "action", "details", "created_at").
		From("activity_logs").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var log models.ActivityLog
		if err := rows.Scan(&log.ID, &log.Username, &log.Action, &log.Details, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func (r *ActivityRepository) Stats(ctx context.Context) (total, users, actions int, err error) {
	query := squirrel.Select(
		"COUNT(*)",
		"COUNT(DISTINCT username)",
		"COUNT(DISTINCT action)",
	).From("activity_logs")

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, 0, 0, err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total, &users, &actions); err != nil {
		return 0, 0, 0, err
	}

	return total, users, actions, nil
}
