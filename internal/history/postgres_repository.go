package history

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL history repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert stores a prediction record.
func (r *PostgresRepository) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO predictions (
			id, requested_at,
			lat, lon, lead_hours, hour_bucket,
			class_1st, prob_1st, class_2nd, prob_2nd,
			temperature, apparent_temperature,
			precipitation_prob, precipitation, advice_category
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.RequestedAt,
		record.Lat,
		record.Lon,
		record.LeadHours,
		record.HourBucket,
		record.Class1,
		record.Prob1,
		record.Class2,
		record.Prob2,
		record.Temperature,
		record.ApparentTemperature,
		record.PrecipitationProb,
		record.Precipitation,
		record.AdviceCategory,
	)
	return err
}

// ListRecent returns up to limit records, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT
			id, requested_at,
			lat, lon, lead_hours, hour_bucket,
			class_1st, prob_1st, class_2nd, prob_2nd,
			temperature, apparent_temperature,
			precipitation_prob, precipitation, advice_category
		FROM predictions
		ORDER BY requested_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.ID,
			&record.RequestedAt,
			&record.Lat,
			&record.Lon,
			&record.LeadHours,
			&record.HourBucket,
			&record.Class1,
			&record.Prob1,
			&record.Class2,
			&record.Prob2,
			&record.Temperature,
			&record.ApparentTemperature,
			&record.PrecipitationProb,
			&record.Precipitation,
			&record.AdviceCategory,
		); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
