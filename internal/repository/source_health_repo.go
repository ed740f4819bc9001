package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_api/internal/models"
)

// SourceHealthRepository tracks daily probe statistics per source kind.
type SourceHealthRepository struct {
	db *sqlx.DB
}

// NewSourceHealthRepository creates a new SourceHealthRepository.
func NewSourceHealthRepository(db *sqlx.DB) *SourceHealthRepository {
	return &SourceHealthRepository{db: db}
}

// RecordProbe folds one probe into today's row for source.
// A miss is a healthy answer; only failures lower the score.
func (r *SourceHealthRepository) RecordProbe(ctx context.Context, source models.SourceKind, outcome models.ProbeOutcome, responseTimeMs int, reason string) error {
	const q = `
		INSERT INTO source_probe_health
			(source, total_probes, hit_count, miss_count, failed_count, last_hit_at, last_failure_at, last_failure_reason, avg_response_time_ms, health_score, date)
		VALUES ($1, 1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, CASE WHEN $4 = 1 THEN 0 ELSE 100 END, CURRENT_DATE)
		ON CONFLICT (source, date) DO UPDATE SET
			total_probes = source_probe_health.total_probes + 1,
			hit_count = source_probe_health.hit_count + $2,
			miss_count = source_probe_health.miss_count + $3,
			failed_count = source_probe_health.failed_count + $4,
			last_hit_at = CASE WHEN $2 = 1 THEN NOW() ELSE source_probe_health.last_hit_at END,
			last_failure_at = CASE WHEN $4 = 1 THEN NOW() ELSE source_probe_health.last_failure_at END,
			last_failure_reason = CASE WHEN $4 = 1 THEN NULLIF($7, '') ELSE source_probe_health.last_failure_reason END,
			avg_response_time_ms = (source_probe_health.avg_response_time_ms * source_probe_health.total_probes + $8) / (source_probe_health.total_probes + 1),
			health_score = (source_probe_health.total_probes + 1 - source_probe_health.failed_count - $4)::DECIMAL / (source_probe_health.total_probes + 1) * 100,
			updated_at = NOW()`

	var hit, miss, failed int
	var lastHitAt, lastFailureAt *time.Time
	now := time.Now()

	switch outcome {
	case models.ProbeHit:
		hit = 1
		lastHitAt = &now
	case models.ProbeMiss:
		miss = 1
	default:
		failed = 1
		lastFailureAt = &now
	}

	_, err := r.db.ExecContext(ctx, q, source, hit, miss, failed, lastHitAt, lastFailureAt, reason, responseTimeMs)
	return err
}

// GetToday returns today's row for source, or nil when it has not been probed yet.
func (r *SourceHealthRepository) GetToday(ctx context.Context, source models.SourceKind) (*models.SourceProbeHealth, error) {
	const q = `SELECT * FROM source_probe_health WHERE source = $1 AND date = CURRENT_DATE`

	var health models.SourceProbeHealth
	if err := r.db.GetContext(ctx, &health, q, source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &health, nil
}

// ListToday returns today's rows for every probed source.
func (r *SourceHealthRepository) ListToday(ctx context.Context) ([]models.SourceProbeHealth, error) {
	const q = `SELECT * FROM source_probe_health WHERE date = CURRENT_DATE ORDER BY source`

	rows := []models.SourceProbeHealth{}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
