package sse

import (
	"context"
	"time"

	"github.com/GTDGit/catalog_api/internal/models"
)

// MutationRecorder is the audit sink wrapped by BroadcastRecorder.
type MutationRecorder interface {
	RecordMutation(ctx context.Context, entry *models.MutationLog) error
}

// BroadcastRecorder forwards each mutation to the next recorder, then pushes it
// to the acting vendor's dashboards. Mutations without an actor are only stored.
// next may be nil.
type BroadcastRecorder struct {
	next MutationRecorder
	hub  *Hub
}

// NewBroadcastRecorder creates a recorder backed by the given Hub.
func NewBroadcastRecorder(next MutationRecorder, hub *Hub) *BroadcastRecorder {
	return &BroadcastRecorder{next: next, hub: hub}
}

// RecordMutation stores entry and publishes it even when storing fails.
func (r *BroadcastRecorder) RecordMutation(ctx context.Context, entry *models.MutationLog) error {
	var err error
	if r.next != nil {
		err = r.next.RecordMutation(ctx, entry)
	}
	if entry.ActorID != nil && r.hub.Streams(*entry.ActorID) > 0 {
		r.hub.Publish(*entry.ActorID, mutationToEvent(entry))
	}
	return err
}

func mutationToEvent(entry *models.MutationLog) *ListingEvent {
	ts := entry.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ListingEvent{
		Event:      eventFor(entry),
		ListingID:  models.ListingID{Kind: entry.ListingKind, ID: entry.ListingID}.String(),
		Action:     entry.Action,
		Outcome:    entry.Outcome,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		ActorID:    entry.ActorID,
		Error:      entry.Error,
		Timestamp:  ts,
	}
}

func eventFor(entry *models.MutationLog) EventType {
	switch {
	case entry.Outcome != models.OutcomeConfirmed:
		return EventListingWriteRejected
	case entry.Action == models.MutationDelete:
		return EventListingDeleted
	default:
		return EventListingStatusChanged
	}
}
