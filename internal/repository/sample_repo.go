package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"memwatch/internal/model"
)

// SampleRepository is the sample store. Samples are append-only and keyed
// by their timestamp.
type SampleRepository struct {
	pool *pgxpool.Pool
}

func NewSampleRepository(pool *pgxpool.Pool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

func (r *SampleRepository) Insert(ctx context.Context, s model.MemorySample) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO memory_samples (sampled_at, total_mb, used_mb, free_mb)
		 VALUES ($1, $2, $3, $4)`,
		s.SampledAt, s.TotalMB, s.UsedMB, s.FreeMB)
	if err != nil {
		return fmt.Errorf("insert memory sample: %w", err)
	}
	return nil
}

// FindRecent returns the latest limit samples, most recent first.
func (r *SampleRepository) FindRecent(ctx context.Context, limit int) ([]model.MemorySample, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sampled_at, total_mb, used_mb, free_mb
		 FROM memory_samples
		 ORDER BY sampled_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent samples: %w", err)
	}
	defer rows.Close()

	samples := make([]model.MemorySample, 0, limit)
	for rows.Next() {
		var s model.MemorySample
		if err := rows.Scan(&s.SampledAt, &s.TotalMB, &s.UsedMB, &s.FreeMB); err != nil {
			return nil, fmt.Errorf("scan memory sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
