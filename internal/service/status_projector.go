package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/models"
)

// MutationGuard serializes write-backs per listing. TryLock returns ok=false when
// another holder owns key.
type MutationGuard interface {
	TryLock(ctx context.Context, key string) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// MutationRecorder stores the audit trail of write-back attempts.
type MutationRecorder interface {
	RecordMutation(ctx context.Context, entry *models.MutationLog) error
}

// StatusProjector derives lifecycle status from raw records and writes status
// changes back to the right backend shape.
type StatusProjector struct {
	adapters   map[models.SourceKind]SourceAdapter
	writers    map[models.SourceKind]StatusWriter
	normalizer *Normalizer
	guard      MutationGuard
	recorder   MutationRecorder
	onAnomaly  AnomalyHook
}

// NewStatusProjector creates a new StatusProjector. Adapters that implement
// StatusWriter become mutable; recorder may be nil.
func NewStatusProjector(normalizer *Normalizer, guard MutationGuard, recorder MutationRecorder, adapters ...SourceAdapter) *StatusProjector {
	p := &StatusProjector{
		adapters:   make(map[models.SourceKind]SourceAdapter),
		writers:    make(map[models.SourceKind]StatusWriter),
		normalizer: normalizer,
		guard:      guard,
		recorder:   recorder,
		onAnomaly:  normalizer.onAnomaly,
	}
	for _, a := range adapters {
		p.adapters[a.Kind()] = a
		if w, ok := a.(StatusWriter); ok {
			p.writers[a.Kind()] = w
		}
	}
	return p
}

// DeriveStatus reads goods_status or service_status. Absent means DefaultLifecycleStatus;
// an unknown value is reported and also defaults.
func (p *StatusProjector) DeriveStatus(rec models.SourceRecord) models.LifecycleStatus {
	status, anomaly := deriveStatus(rec)
	if anomaly != nil {
		p.onAnomaly(*anomaly)
	}
	return status
}

func deriveStatus(rec models.SourceRecord) (models.LifecycleStatus, *MalformedSourceDataError) {
	var raw *string
	var field string
	switch rec.Kind {
	case models.SourceGoods:
		if rec.Goods != nil {
			raw, field = rec.Goods.GoodsStatus, "goods_status"
		}
	case models.SourceService:
		if rec.Service != nil {
			raw, field = rec.Service.ServiceStatus, "service_status"
		}
	case models.SourceExternal:
		return models.DefaultLifecycleStatus, nil
	}
	if raw == nil {
		return models.DefaultLifecycleStatus, nil
	}
	if status, ok := models.LookupStatus(rec.Kind, *raw); ok {
		return status, nil
	}
	return models.DefaultLifecycleStatus, &MalformedSourceDataError{
		Kind:     rec.Kind,
		RecordID: rec.ID().String(),
		Field:    field,
		Value:    fmt.Sprintf("%q", *raw),
		Default:  string(models.DefaultLifecycleStatus),
	}
}

// ToggleStatus flips a published listing to paused and back. The listing is
// re-normalized from the patched record only after the backend confirms.
func (p *StatusProjector) ToggleStatus(ctx context.Context, id models.ListingID) (*models.Listing, error) {
	return p.ToggleStatusAs(ctx, id, "")
}

// ToggleStatusAs is ToggleStatus with the acting user recorded in the audit log.
func (p *StatusProjector) ToggleStatusAs(ctx context.Context, id models.ListingID, actor string) (*models.Listing, error) {
	adapter, writer, err := p.mutable(id)
	if err != nil {
		return nil, err
	}

	release, err := p.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	entry := &models.MutationLog{
		ListingKind: id.Kind,
		ListingID:   id.ID,
		Action:      models.MutationToggleStatus,
		ActorID:     optional(actor),
	}

	fresh, err := adapter.FetchOne(ctx, id.ID)
	if err != nil {
		// a listing that vanished is not a write attempt
		if IsNotFound(err) {
			return nil, err
		}
		p.record(ctx, entry, start, models.OutcomeFailed, err)
		return nil, err
	}

	current := p.DeriveStatus(fresh)
	entry.FromStatus = optional(string(current))
	next, ok := current.Toggled()
	if !ok {
		return nil, fmt.Errorf("%w: listing is %s", ErrToggleNotApplicable, current)
	}
	entry.ToStatus = optional(string(next))

	value, ok := models.StatusValue(id.Kind, next)
	if !ok {
		return nil, fmt.Errorf("%w: no %s value for %s", ErrToggleNotApplicable, id.Kind, next)
	}
	patched, err := writer.WithStatus(fresh, value)
	if err != nil {
		return nil, err
	}

	confirmed, err := writer.SubmitStatus(ctx, patched)
	if IsNotFound(err) {
		return nil, err
	}
	if err != nil {
		lf := &LoadFailure{Op: "update status", Source: id.Kind, Err: err}
		p.record(ctx, entry, start, models.OutcomeFailed, lf)
		return nil, lf
	}
	if !confirmed {
		wc := &WriteConflictError{ID: id, Action: models.MutationToggleStatus}
		p.record(ctx, entry, start, models.OutcomeConflict, wc)
		return nil, wc
	}
	p.record(ctx, entry, start, models.OutcomeConfirmed, nil)

	log.Info().
		Str("listing", id.String()).
		Str("from", string(current)).
		Str("to", string(next)).
		Msg("Listing status toggled")

	return p.normalizer.Normalize(patched)
}

// Delete removes a listing from its backend.
func (p *StatusProjector) Delete(ctx context.Context, id models.ListingID) error {
	return p.DeleteAs(ctx, id, "")
}

// DeleteAs is Delete with the acting user recorded in the audit log.
func (p *StatusProjector) DeleteAs(ctx context.Context, id models.ListingID, actor string) error {
	_, writer, err := p.mutable(id)
	if err != nil {
		return err
	}

	release, err := p.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	entry := &models.MutationLog{
		ListingKind: id.Kind,
		ListingID:   id.ID,
		Action:      models.MutationDelete,
		ActorID:     optional(actor),
	}

	confirmed, err := writer.Remove(ctx, id.ID)
	if IsNotFound(err) {
		return err
	}
	if err != nil {
		lf := &LoadFailure{Op: "delete", Source: id.Kind, Err: err}
		p.record(ctx, entry, start, models.OutcomeFailed, lf)
		return lf
	}
	if !confirmed {
		wc := &WriteConflictError{ID: id, Action: models.MutationDelete}
		p.record(ctx, entry, start, models.OutcomeConflict, wc)
		return wc
	}
	p.record(ctx, entry, start, models.OutcomeConfirmed, nil)

	log.Info().Str("listing", id.String()).Msg("Listing deleted")
	return nil
}

func (p *StatusProjector) mutable(id models.ListingID) (SourceAdapter, StatusWriter, error) {
	if !id.Kind.Addressable() {
		return nil, nil, ErrSourceNotAddressable
	}
	adapter, ok := p.adapters[id.Kind]
	if !ok {
		return nil, nil, ErrSourceNotAddressable
	}
	writer, ok := p.writers[id.Kind]
	if !ok {
		return nil, nil, ErrSourceNotAddressable
	}
	return adapter, writer, nil
}

// acquire takes the per-listing guard. The returned func releases it.
func (p *StatusProjector) acquire(ctx context.Context, id models.ListingID) (func(), error) {
	key := id.String()
	token, ok, err := p.guard.TryLock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire mutation lock: %w", err)
	}
	if !ok {
		return nil, ErrOperationPending
	}
	return func() {
		if err := p.guard.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			log.Error().Err(err).Str("listing", key).Msg("Failed to release mutation lock")
		}
	}, nil
}

func (p *StatusProjector) record(ctx context.Context, entry *models.MutationLog, start time.Time, outcome models.MutationOutcome, cause error) {
	if p.recorder == nil {
		return
	}
	entry.Outcome = outcome
	entry.DurationMs = int(time.Since(start).Milliseconds())
	entry.CreatedAt = time.Now()
	if cause != nil {
		msg := cause.Error()
		var lf *LoadFailure
		if errors.As(cause, &lf) && lf.Err != nil {
			msg = lf.Err.Error()
		}
		entry.Error = &msg
	}
	if err := p.recorder.RecordMutation(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("listing", models.ListingID{Kind: entry.ListingKind, ID: entry.ListingID}.String()).Msg("Failed to record mutation")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
