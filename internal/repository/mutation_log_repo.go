package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_api/internal/models"
)

const defaultMutationLogLimit = 50

// MutationLogRepository handles data access for the write-back audit trail.
type MutationLogRepository struct {
	db *sqlx.DB
}

// NewMutationLogRepository creates a new MutationLogRepository.
func NewMutationLogRepository(db *sqlx.DB) *MutationLogRepository {
	return &MutationLogRepository{db: db}
}

// RecordMutation inserts one attempt and fills in its id and timestamp.
func (r *MutationLogRepository) RecordMutation(ctx context.Context, entry *models.MutationLog) error {
	const q = `
		INSERT INTO listing_mutation_logs
			(listing_kind, listing_id, action, from_status, to_status, outcome, error, actor_id, duration_ms)
		VALUES
			(:listing_kind, :listing_id, :action, :from_status, :to_status, :outcome, :error, :actor_id, :duration_ms)
		RETURNING id, created_at`

	rows, err := r.db.NamedQueryContext(ctx, q, entry)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&entry.ID, &entry.CreatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ListByListing returns the newest attempts for one listing.
func (r *MutationLogRepository) ListByListing(ctx context.Context, kind models.SourceKind, listingID int64, limit int) ([]models.MutationLog, error) {
	if limit <= 0 {
		limit = defaultMutationLogLimit
	}
	const q = `
		SELECT * FROM listing_mutation_logs
		WHERE listing_kind = $1 AND listing_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	logs := []models.MutationLog{}
	if err := r.db.SelectContext(ctx, &logs, q, kind, listingID, limit); err != nil {
		return nil, err
	}
	return logs, nil
}
