package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/GTDGit/catalog_api/internal/models"
)

// ResolutionCache remembers which listing a slug resolved to.
type ResolutionCache interface {
	GetListingID(ctx context.Context, slug string) (models.ListingID, bool, error)
	SetListingID(ctx context.Context, slug string, id models.ListingID) error
	DeleteListingID(ctx context.Context, slug string) error
}

// ProbeRecorder receives probe outcomes for per-source health tracking.
type ProbeRecorder interface {
	RecordProbe(ctx context.Context, source models.SourceKind, outcome models.ProbeOutcome, responseTimeMs int, reason string) error
}

// Resolution is a resolved reference: the raw record and how it was found.
type Resolution struct {
	Kind   models.SourceKind
	Record models.SourceRecord
	Cached bool
}

// ListingResolver finds the backend record behind a slug or id. Adapters are
// probed concurrently, but the result honours registration order.
type ListingResolver struct {
	adapters []SourceAdapter
	byKind   map[models.SourceKind]SourceAdapter
	cache    ResolutionCache
	probes   ProbeRecorder
	inflight singleflight.Group
}

// NewListingResolver creates a new ListingResolver. Adapters are given in priority
// order; cache and probes may be nil.
func NewListingResolver(cache ResolutionCache, probes ProbeRecorder, adapters ...SourceAdapter) *ListingResolver {
	r := &ListingResolver{
		byKind: make(map[models.SourceKind]SourceAdapter, len(adapters)),
		cache:  cache,
		probes: probes,
	}
	for _, a := range adapters {
		if !a.Kind().Addressable() {
			continue
		}
		r.adapters = append(r.adapters, a)
		r.byKind[a.Kind()] = a
	}
	return r
}

// Kinds returns the probed kinds in priority order.
func (r *ListingResolver) Kinds() []models.SourceKind {
	kinds := make([]models.SourceKind, len(r.adapters))
	for i, a := range r.adapters {
		kinds[i] = a.Kind()
	}
	return kinds
}

// sharedRoundTimeout bounds a coalesced probe round, which outlives any single caller.
const sharedRoundTimeout = 30 * time.Second

// probeTarget is one adapter asked about one reference.
type probeTarget struct {
	adapter SourceAdapter
	ref     models.ListingRef
}

type probeResult struct {
	index  int
	record models.SourceRecord
	err    error
}

// Resolve finds the record for ref. With a kind hint only that adapter is asked.
// Without one every adapter is probed; the first success in priority order wins
// and NotFoundError is returned only when every adapter missed.
func (r *ListingResolver) Resolve(ctx context.Context, ref models.ListingRef) (*Resolution, error) {
	if !ref.BySlug() && ref.ID <= 0 {
		return nil, &NotFoundError{Ref: ref.String()}
	}

	if ref.KindHint != "" {
		if !ref.KindHint.Addressable() {
			return nil, ErrSourceNotAddressable
		}
		adapter, ok := r.byKind[ref.KindHint]
		if !ok {
			return nil, &NotFoundError{Ref: ref.String()}
		}
		rec, err := r.probe(ctx, adapter, ref)
		if err != nil {
			return nil, err
		}
		return &Resolution{Kind: adapter.Kind(), Record: rec}, nil
	}

	// Concurrent lookups of the same reference share one probe round. The round
	// is detached from the caller that started it; each caller waits on its own ctx.
	ch := r.inflight.DoChan(ref.String(), func() (any, error) {
		roundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedRoundTimeout)
		defer cancel()
		return r.resolveUnhinted(roundCtx, ref)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Resolution), nil
	case <-ctx.Done():
		return nil, &LoadFailure{Op: "resolve", Source: r.firstKind(), Err: ctx.Err()}
	}
}

func (r *ListingResolver) resolveUnhinted(ctx context.Context, ref models.ListingRef) (*Resolution, error) {
	if ref.BySlug() {
		if res, ok, err := r.fromCache(ctx, ref.Slug); err != nil || ok {
			return res, err
		}
	}

	targets := make([]probeTarget, len(r.adapters))
	for i, a := range r.adapters {
		targets[i] = probeTarget{adapter: a, ref: ref}
	}
	idx, rec, err := r.fanOut(ctx, targets)
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Ref: ref.String(), Probed: r.Kinds()}
		}
		return nil, err
	}
	if ref.BySlug() {
		r.remember(ctx, ref.Slug, rec.ID())
	}
	return &Resolution{Kind: r.adapters[idx].Kind(), Record: rec}, nil
}

// fromCache returns ok=false on a miss or a stale entry, which is evicted.
// Adapters ranked above the cached kind are asked by slug alongside the cached
// id, so a listing that appeared there since still wins the tie-break.
func (r *ListingResolver) fromCache(ctx context.Context, slug string) (*Resolution, bool, error) {
	if r.cache == nil {
		return nil, false, nil
	}
	id, ok, err := r.cache.GetListingID(ctx, slug)
	if err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("Resolution cache read failed")
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	if pos := r.priority(id.Kind); pos >= 0 {
		targets := make([]probeTarget, 0, pos+1)
		for _, a := range r.adapters[:pos] {
			targets = append(targets, probeTarget{adapter: a, ref: models.ListingRef{Slug: slug}})
		}
		targets = append(targets, probeTarget{adapter: r.adapters[pos], ref: models.ListingRef{ID: id.ID, KindHint: id.Kind}})

		idx, rec, err := r.fanOut(ctx, targets)
		switch {
		case err == nil && idx < pos:
			log.Debug().Str("slug", slug).Str("listing", rec.ID().String()).Msg("Higher priority source now holds slug")
			r.remember(ctx, slug, rec.ID())
			return &Resolution{Kind: r.adapters[idx].Kind(), Record: rec}, true, nil
		case err == nil && rec.ID() == id && recordSlug(rec) == slug:
			return &Resolution{Kind: id.Kind, Record: rec, Cached: true}, true, nil
		case err != nil && !IsNotFound(err):
			return nil, false, err
		}
	}

	log.Debug().Str("slug", slug).Str("listing", id.String()).Msg("Evicting stale resolution")
	if err := r.cache.DeleteListingID(ctx, slug); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("Failed to evict resolution")
	}
	return nil, false, nil
}

func (r *ListingResolver) remember(ctx context.Context, slug string, id models.ListingID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetListingID(ctx, slug, id); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("Failed to cache resolution")
	}
}

// priority returns the adapter index for kind, or -1.
func (r *ListingResolver) priority(kind models.SourceKind) int {
	for i, a := range r.adapters {
		if a.Kind() == kind {
			return i
		}
	}
	return -1
}

func (r *ListingResolver) firstKind() models.SourceKind {
	if len(r.adapters) == 0 {
		return ""
	}
	return r.adapters[0].Kind()
}

// fanOut probes every target at once and commits results in target order. It
// returns the index of the winning target, or NotFoundError when all missed.
func (r *ListingResolver) fanOut(ctx context.Context, targets []probeTarget) (int, models.SourceRecord, error) {
	if len(targets) == 0 {
		return -1, models.SourceRecord{}, &NotFoundError{}
	}

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan probeResult, len(targets))
	for i, t := range targets {
		go func(i int, t probeTarget) {
			rec, err := r.probe(probeCtx, t.adapter, t.ref)
			results <- probeResult{index: i, record: rec, err: err}
		}(i, t)
	}

	done := make([]*probeResult, len(targets))
	next := 0
	for received := 0; received < len(targets); received++ {
		var res probeResult
		select {
		case res = <-results:
		case <-ctx.Done():
			return -1, models.SourceRecord{}, &LoadFailure{Op: "resolve", Source: targets[next].adapter.Kind(), Err: ctx.Err()}
		}
		done[res.index] = &res

		// commit every settled prefix in priority order
		for next < len(done) && done[next] != nil {
			cur := done[next]
			switch {
			case cur.err == nil:
				return next, cur.record, nil
			case IsNotFound(cur.err):
				next++
			default:
				return -1, models.SourceRecord{}, cur.err
			}
		}
	}

	return -1, models.SourceRecord{}, &NotFoundError{}
}

// probe asks one adapter and records the outcome. Probes cancelled by a
// higher-priority hit are not recorded.
func (r *ListingResolver) probe(ctx context.Context, adapter SourceAdapter, ref models.ListingRef) (models.SourceRecord, error) {
	start := time.Now()
	var rec models.SourceRecord
	var err error
	if ref.BySlug() {
		rec, err = adapter.FetchBySlug(ctx, ref.Slug)
	} else {
		rec, err = adapter.FetchOne(ctx, ref.ID)
	}
	elapsed := int(time.Since(start).Milliseconds())

	switch {
	case err == nil:
		r.recordProbe(ctx, adapter.Kind(), models.ProbeHit, elapsed, "")
		return rec, nil
	case IsNotFound(err):
		r.recordProbe(ctx, adapter.Kind(), models.ProbeMiss, elapsed, "")
		return rec, err
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// cancelled by a higher-priority hit
	default:
		r.recordProbe(ctx, adapter.Kind(), models.ProbeFailed, elapsed, err.Error())
		log.Warn().
			Err(err).
			Str("source", string(adapter.Kind())).
			Str("ref", ref.String()).
			Msg("Probe failed")
	}

	var lf *LoadFailure
	if !errors.As(err, &lf) {
		err = &LoadFailure{Op: "fetch", Source: adapter.Kind(), Err: err}
	}
	return rec, err
}

func (r *ListingResolver) recordProbe(ctx context.Context, source models.SourceKind, outcome models.ProbeOutcome, ms int, reason string) {
	if r.probes == nil {
		return
	}
	if err := r.probes.RecordProbe(context.WithoutCancel(ctx), source, outcome, ms, reason); err != nil {
		log.Warn().Err(err).Str("source", string(source)).Msg("Failed to record probe")
	}
}

func recordSlug(rec models.SourceRecord) string {
	switch rec.Kind {
	case models.SourceGoods:
		if rec.Goods != nil {
			return rec.Goods.Slug
		}
	case models.SourceService:
		if rec.Service != nil {
			return rec.Service.Slug
		}
	}
	return ""
}
