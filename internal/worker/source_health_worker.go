package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/internal/service"
)

// DefaultDegradedScore is the health score below which a source is reported as degraded.
const DefaultDegradedScore = 90.0

// BackendPinger checks that the listing backend answers at all.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// SourceHealthWorker periodically reports per-source probe statistics and
// pings the backend so an outage shows up even when no listing is requested.
type SourceHealthWorker struct {
	health        service.SourceHealthReader
	backend       BackendPinger
	interval      time.Duration
	degradedScore float64
}

// NewSourceHealthWorker constructs a SourceHealthWorker. backend may be nil.
func NewSourceHealthWorker(health service.SourceHealthReader, backend BackendPinger, interval time.Duration) *SourceHealthWorker {
	return &SourceHealthWorker{
		health:        health,
		backend:       backend,
		interval:      interval,
		degradedScore: DefaultDegradedScore,
	}
}

// Start begins the report loop and listens for context cancellation.
func (w *SourceHealthWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting source health worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Source health worker stopped")
			return
		}
	}
}

// run performs one report and returns the sources below the degraded score.
func (w *SourceHealthWorker) run(ctx context.Context) []models.SourceKind {
	if w.backend != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := w.backend.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("Listing backend unreachable")
		}
	}

	stats, err := w.health.ListToday(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load source health")
		return nil
	}

	var degraded []models.SourceKind
	for _, s := range stats {
		ev := log.Info()
		if s.HealthScore < w.degradedScore {
			ev = log.Warn()
			degraded = append(degraded, s.Source)
		}
		if s.LastFailureReason != nil {
			ev = ev.Str("last_failure", *s.LastFailureReason)
		}
		ev.Str("source", string(s.Source)).
			Int("probes", s.TotalProbes).
			Int("hits", s.HitCount).
			Int("misses", s.MissCount).
			Int("failures", s.FailedCount).
			Int("avg_ms", s.AvgResponseTimeMs).
			Float64("score", s.HealthScore).
			Msg("Source probe health")
	}
	return degraded
}
