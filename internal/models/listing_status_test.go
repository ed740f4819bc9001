package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupStatus(t *testing.T) {
	tests := []struct {
		kind SourceKind
		raw  string
		want LifecycleStatus
		ok   bool
	}{
		{SourceGoods, "active", StatusPublished, true},
		{SourceGoods, " Inactive ", StatusPaused, true},
		{SourceGoods, "draft", StatusDraft, true},
		{SourceService, "published", StatusPublished, true},
		{SourceService, "unavailable", StatusPaused, true},
		{SourceService, "expired", StatusExpired, true},
		{SourceGoods, "archived", "", false},
		{SourceExternal, "active", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.raw, func(t *testing.T) {
			got, ok := LookupStatus(tt.kind, tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusValue_RoundTripsThroughVocabulary(t *testing.T) {
	for _, kind := range []SourceKind{SourceGoods, SourceService} {
		for _, s := range []LifecycleStatus{StatusDraft, StatusPublished, StatusPaused, StatusExpired} {
			v, ok := StatusValue(kind, s)
			assert.True(t, ok)
			back, ok := LookupStatus(kind, v)
			assert.True(t, ok)
			assert.Equal(t, s, back)
		}
	}

	v, _ := StatusValue(SourceGoods, StatusPaused)
	assert.Equal(t, "inactive", v)
	v, _ = StatusValue(SourceService, StatusPaused)
	assert.Equal(t, "paused", v)
}

func TestToggled(t *testing.T) {
	next, ok := StatusPublished.Toggled()
	assert.True(t, ok)
	assert.Equal(t, StatusPaused, next)

	next, ok = StatusPaused.Toggled()
	assert.True(t, ok)
	assert.Equal(t, StatusPublished, next)

	for _, s := range []LifecycleStatus{StatusDraft, StatusExpired} {
		next, ok = s.Toggled()
		assert.False(t, ok)
		assert.Equal(t, s, next)
		assert.False(t, s.CanToggle())
	}
}

func TestParseListingPath(t *testing.T) {
	tests := []struct {
		path    string
		want    ListingRef
		wantErr bool
	}{
		{path: "/listing/red-chair", want: ListingRef{Slug: "red-chair"}},
		{path: "/v1/listing/red-chair", want: ListingRef{Slug: "red-chair"}},
		{path: "/listing/id/42", want: ListingRef{ID: 42, KindHint: SourceGoods}},
		{path: "/goods/red-chair/", want: ListingRef{Slug: "red-chair", KindHint: SourceGoods}},
		{path: "/service/plumbing", want: ListingRef{Slug: "plumbing", KindHint: SourceService}},
		{path: "/listing/id/abc", wantErr: true},
		{path: "/listing/", wantErr: true},
		{path: "/cars/1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseListingPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidListingPath)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
