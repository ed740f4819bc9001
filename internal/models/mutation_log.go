package models

import "time"

// MutationAction names a write-back operation.
type MutationAction string

const (
	MutationToggleStatus MutationAction = "toggle_status"
	MutationDelete       MutationAction = "delete"
)

// MutationOutcome is the result of a write-back attempt.
type MutationOutcome string

const (
	OutcomeConfirmed MutationOutcome = "confirmed"
	OutcomeConflict  MutationOutcome = "conflict"
	OutcomeFailed    MutationOutcome = "failed"
)

// MutationLog is one audited write-back attempt.
type MutationLog struct {
	ID          int64           `db:"id" json:"id"`
	ListingKind SourceKind      `db:"listing_kind" json:"listingKind"`
	ListingID   int64           `db:"listing_id" json:"listingId"`
	Action      MutationAction  `db:"action" json:"action"`
	FromStatus  *string         `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus    *string         `db:"to_status" json:"toStatus,omitempty"`
	Outcome     MutationOutcome `db:"outcome" json:"outcome"`
	Error       *string         `db:"error" json:"error,omitempty"`
	ActorID     *string         `db:"actor_id" json:"actorId,omitempty"`
	DurationMs  int             `db:"duration_ms" json:"durationMs"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// ProbeOutcome classifies one source probe during resolution.
type ProbeOutcome string

const (
	ProbeHit    ProbeOutcome = "hit"
	ProbeMiss   ProbeOutcome = "miss"
	ProbeFailed ProbeOutcome = "failed"
)

// SourceProbeHealth tracks daily probe statistics per source kind.
type SourceProbeHealth struct {
	ID                int        `db:"id" json:"id"`
	Source            SourceKind `db:"source" json:"source"`
	TotalProbes       int        `db:"total_probes" json:"totalProbes"`
	HitCount          int        `db:"hit_count" json:"hitCount"`
	MissCount         int        `db:"miss_count" json:"missCount"`
	FailedCount       int        `db:"failed_count" json:"failedCount"`
	LastHitAt         *time.Time `db:"last_hit_at" json:"lastHitAt,omitempty"`
	LastFailureAt     *time.Time `db:"last_failure_at" json:"lastFailureAt,omitempty"`
	LastFailureReason *string    `db:"last_failure_reason" json:"lastFailureReason,omitempty"`
	AvgResponseTimeMs int        `db:"avg_response_time_ms" json:"avgResponseTimeMs"`
	HealthScore       float64    `db:"health_score" json:"healthScore"`
	Date              time.Time  `db:"date" json:"date"`
	CreatedAt         time.Time  `db:"created_at" json:"-"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}
