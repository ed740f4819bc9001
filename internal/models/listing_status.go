package models

import "strings"

// LifecycleStatus is the canonical listing state.
type LifecycleStatus string

const (
	StatusDraft     LifecycleStatus = "draft"
	StatusPublished LifecycleStatus = "published"
	StatusPaused    LifecycleStatus = "paused"
	StatusExpired   LifecycleStatus = "expired"
)

// DefaultLifecycleStatus applies when a source record carries no status field.
const DefaultLifecycleStatus = StatusPublished

// Status vocabularies. Keys are backend values (lower-cased), values the canonical state.

// GoodsStatusVocabulary maps goods_status values.
var GoodsStatusVocabulary = map[string]LifecycleStatus{
	"draft":     StatusDraft,
	"active":    StatusPublished,
	"published": StatusPublished,
	"inactive":  StatusPaused,
	"paused":    StatusPaused,
	"expired":   StatusExpired,
}

// ServiceStatusVocabulary maps service_status values.
var ServiceStatusVocabulary = map[string]LifecycleStatus{
	"draft":       StatusDraft,
	"published":   StatusPublished,
	"active":      StatusPublished,
	"paused":      StatusPaused,
	"unavailable": StatusPaused,
	"expired":     StatusExpired,
}

// Values written back to the backend for each canonical state.
var (
	goodsStatusWrite = map[LifecycleStatus]string{
		StatusDraft:     "draft",
		StatusPublished: "active",
		StatusPaused:    "inactive",
		StatusExpired:   "expired",
	}
	serviceStatusWrite = map[LifecycleStatus]string{
		StatusDraft:     "draft",
		StatusPublished: "published",
		StatusPaused:    "paused",
		StatusExpired:   "expired",
	}
)

// LookupStatus maps a backend status value for the given kind.
func LookupStatus(kind SourceKind, raw string) (LifecycleStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	var s LifecycleStatus
	var ok bool
	switch kind {
	case SourceGoods:
		s, ok = GoodsStatusVocabulary[key]
	case SourceService:
		s, ok = ServiceStatusVocabulary[key]
	}
	return s, ok
}

// StatusValue returns the backend value to write for a canonical state.
func StatusValue(kind SourceKind, s LifecycleStatus) (string, bool) {
	var v string
	var ok bool
	switch kind {
	case SourceGoods:
		v, ok = goodsStatusWrite[s]
	case SourceService:
		v, ok = serviceStatusWrite[s]
	}
	return v, ok
}

// CanToggle reports whether the state takes part in the publish/pause toggle.
func (s LifecycleStatus) CanToggle() bool {
	return s == StatusPublished || s == StatusPaused
}

// Toggled returns the opposite of Published/Paused. Other states are returned unchanged with ok=false.
func (s LifecycleStatus) Toggled() (LifecycleStatus, bool) {
	switch s {
	case StatusPublished:
		return StatusPaused, true
	case StatusPaused:
		return StatusPublished, true
	}
	return s, false
}
