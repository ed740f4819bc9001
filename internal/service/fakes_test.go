package service

import (
	"context"
	"sync"
	"time"

	"github.com/GTDGit/catalog_api/internal/cache"
	"github.com/GTDGit/catalog_api/internal/models"
	"github.com/GTDGit/catalog_api/pkg/marketplace"
)

func strPtr(s string) *string { return &s }

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type fakeGoodsBackend struct {
	mu          sync.Mutex
	items       []marketplace.GoodsEntity
	readErr     error
	delay       time.Duration
	gate        chan struct{}
	updateOK    bool
	updateErr   error
	updates     []string
	deletes     []int64
	byIDCalls   int
	bySlugCalls int
	listLimits  []int
}

func newGoodsBackend(items ...marketplace.GoodsEntity) *fakeGoodsBackend {
	return &fakeGoodsBackend{items: items, updateOK: true}
}

func (f *fakeGoodsBackend) pause(ctx context.Context) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return wait(ctx, f.delay)
}

func (f *fakeGoodsBackend) GetGoods(ctx context.Context, id int64) (*marketplace.GoodsEntity, error) {
	f.mu.Lock()
	f.byIDCalls++
	f.mu.Unlock()
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, g := range f.items {
		if g.ID == id {
			out := g
			return &out, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (f *fakeGoodsBackend) GetGoodsBySlug(ctx context.Context, slug string) (*marketplace.GoodsEntity, error) {
	f.mu.Lock()
	f.bySlugCalls++
	f.mu.Unlock()
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, g := range f.items {
		if g.Slug == slug {
			out := g
			return &out, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (f *fakeGoodsBackend) ListGoods(ctx context.Context, limit int) ([]marketplace.GoodsEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLimits = append(f.listLimits, limit)
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := append([]marketplace.GoodsEntity(nil), f.items...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeGoodsBackend) UpdateGoodsStatus(ctx context.Context, id int64, status string) (bool, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	f.updates = append(f.updates, status)
	if !f.updateOK {
		return false, nil
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].GoodsStatus = strPtr(status)
		}
	}
	return true, nil
}

func (f *fakeGoodsBackend) DeleteGoods(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	f.deletes = append(f.deletes, id)
	return f.updateOK, nil
}

func (f *fakeGoodsBackend) calls() (byID, bySlug int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byIDCalls, f.bySlugCalls
}

type fakeServiceBackend struct {
	mu          sync.Mutex
	items       []marketplace.ServiceEntity
	readErr     error
	delay       time.Duration
	updateOK    bool
	updateErr   error
	updates     []string
	byIDCalls   int
	bySlugCalls int
}

func newServiceBackend(items ...marketplace.ServiceEntity) *fakeServiceBackend {
	return &fakeServiceBackend{items: items, updateOK: true}
}

func (f *fakeServiceBackend) GetService(ctx context.Context, id int64) (*marketplace.ServiceEntity, error) {
	f.mu.Lock()
	f.byIDCalls++
	f.mu.Unlock()
	if err := wait(ctx, f.delay); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, s := range f.items {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (f *fakeServiceBackend) GetServiceBySlug(ctx context.Context, slug string) (*marketplace.ServiceEntity, error) {
	f.mu.Lock()
	f.bySlugCalls++
	f.mu.Unlock()
	if err := wait(ctx, f.delay); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, s := range f.items {
		if s.Slug == slug {
			out := s
			return &out, nil
		}
	}
	return nil, marketplace.ErrNotFound
}

func (f *fakeServiceBackend) ListServices(ctx context.Context, limit int) ([]marketplace.ServiceEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := append([]marketplace.ServiceEntity(nil), f.items...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeServiceBackend) UpdateServiceStatus(ctx context.Context, id int64, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	f.updates = append(f.updates, status)
	if !f.updateOK {
		return false, nil
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].ServiceStatus = strPtr(status)
		}
	}
	return true, nil
}

func (f *fakeServiceBackend) DeleteService(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	return f.updateOK, nil
}

func (f *fakeServiceBackend) calls() (byID, bySlug int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byIDCalls, f.bySlugCalls
}

// anomalySink collects anomalies reported through an AnomalyHook.
type anomalySink struct {
	mu   sync.Mutex
	list []MalformedSourceDataError
}

func (s *anomalySink) hook(a MalformedSourceDataError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, a)
}

func (s *anomalySink) fields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.list))
	for i, a := range s.list {
		out[i] = a.Field
	}
	return out
}

type fakeMutationRecorder struct {
	mu      sync.Mutex
	entries []models.MutationLog
}

func (r *fakeMutationRecorder) RecordMutation(ctx context.Context, entry *models.MutationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeMutationRecorder) all() []models.MutationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MutationLog(nil), r.entries...)
}

type probeRecord struct {
	source  models.SourceKind
	outcome models.ProbeOutcome
}

type fakeProbeRecorder struct {
	mu      sync.Mutex
	records []probeRecord
}

func (r *fakeProbeRecorder) RecordProbe(ctx context.Context, source models.SourceKind, outcome models.ProbeOutcome, responseTimeMs int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, probeRecord{source: source, outcome: outcome})
	return nil
}

func (r *fakeProbeRecorder) all() []probeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]probeRecord(nil), r.records...)
}

// stack is a fully wired service layer over fake backends.
type stack struct {
	goods     *fakeGoodsBackend
	services  *fakeServiceBackend
	anomalies *anomalySink
	store     *cache.MemoryStore
	guard     *cache.MutationLock
	mutations *fakeMutationRecorder
	probes    *fakeProbeRecorder

	adapters   []SourceAdapter
	normalizer *Normalizer
	resolver   *ListingResolver
	projector  *StatusProjector
	related    *RelatedService
	listings   *ListingService
}

func newStack(goods *fakeGoodsBackend, services *fakeServiceBackend) *stack {
	s := &stack{
		goods:     goods,
		services:  services,
		anomalies: &anomalySink{},
		store:     cache.NewMemoryStore(time.Minute),
		mutations: &fakeMutationRecorder{},
		probes:    &fakeProbeRecorder{},
	}
	s.guard = cache.NewMutationLock(s.store, time.Minute)
	s.adapters = []SourceAdapter{
		NewGoodsAdapter(goods),
		NewServiceAdapter(services),
		NewExternalAdapter(),
	}
	s.normalizer = NewNormalizer(NormalizerConfig{OnAnomaly: s.anomalies.hook}, s.adapters...)
	s.resolver = NewListingResolver(cache.NewResolutionCache(s.store, time.Minute), s.probes, s.adapters...)
	s.projector = NewStatusProjector(s.normalizer, s.guard, s.mutations, s.adapters...)
	s.related = NewRelatedService(s.normalizer, 0, s.adapters...)
	s.listings = NewListingService(s.resolver, s.normalizer, s.projector, s.related, nil, nil, s.adapters...)
	return s
}

func (s *stack) close() {
	_ = s.store.Close()
}
