package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/domain"
)

// RequestLogRepository stores the append-only trail of admitted calls.
type RequestLogRepository interface {
	Append(ctx context.Context, entry domain.RequestLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.RequestLog, error)
}

type requestLogRepository struct {
	pool *pgxpool.Pool
}

// NewRequestLogRepository builds the repository. It satisfies audit.Log.
func NewRequestLogRepository(pool *pgxpool.Pool) RequestLogRepository {
	return &requestLogRepository{pool: pool}
}

func (r *requestLogRepository) Append(ctx context.Context, entry domain.RequestLog) error {
	const query = `
        INSERT INTO request_logs (user_id, requested_at, latitude, longitude)
        VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query,
		entry.UserID,
		entry.RequestedAt,
		entry.Latitude,
		entry.Longitude,
	)
	return err
}

func (r *requestLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.RequestLog, error) {
	const query = `
        SELECT id, user_id, requested_at, latitude, longitude
        FROM request_logs WHERE user_id=$1 ORDER BY requested_at DESC, id DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestLog
	for rows.Next() {
		var entry domain.RequestLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.RequestedAt,
			&entry.Latitude,
			&entry.Longitude,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
