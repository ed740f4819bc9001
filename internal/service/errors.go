package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GTDGit/catalog_api/internal/models"
)

var (
	// ErrOperationPending is returned when a mutation for the same listing is already in flight.
	ErrOperationPending = errors.New("OPERATION_PENDING")
	// ErrToggleNotApplicable is returned when toggling a listing that is neither published nor paused.
	ErrToggleNotApplicable = errors.New("TOGGLE_NOT_APPLICABLE")
	// ErrSourceNotAddressable is returned by sources that cannot be fetched or mutated by id.
	ErrSourceNotAddressable = errors.New("SOURCE_NOT_ADDRESSABLE")
	// ErrInvalidRating is returned for a rating outside the accepted scale.
	ErrInvalidRating = errors.New("INVALID_RATING")
)

// NotFoundError means no probed source knows the reference.
type NotFoundError struct {
	Ref    string
	Probed []models.SourceKind
}

func (e *NotFoundError) Error() string {
	probed := make([]string, len(e.Probed))
	for i, k := range e.Probed {
		probed[i] = string(k)
	}
	return fmt.Sprintf("listing %q not found (probed: %s)", e.Ref, strings.Join(probed, ","))
}

// MalformedSourceDataError describes a field that could not be read and was replaced by a default.
// It is reported, never returned from normalization.
type MalformedSourceDataError struct {
	Kind     models.SourceKind
	RecordID string
	Field    string
	Value    string
	Default  string
}

func (e *MalformedSourceDataError) Error() string {
	return fmt.Sprintf("malformed %s field %q on %s: got %s, using %s",
		e.Kind, e.Field, e.RecordID, e.Value, e.Default)
}

// WriteConflictError means the backend refused a write-back.
type WriteConflictError struct {
	ID     models.ListingID
	Action models.MutationAction
}

func (e *WriteConflictError) Error() string {
	return fmt.Sprintf("backend rejected %s on %s", e.Action, e.ID)
}

// LoadFailure wraps a transport or backend failure while reading or writing a source.
type LoadFailure struct {
	Op     string
	Source models.SourceKind
	Err    error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *LoadFailure) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsWriteConflict reports whether err is a WriteConflictError.
func IsWriteConflict(err error) bool {
	var wc *WriteConflictError
	return errors.As(err, &wc)
}

// IsLoadFailure reports whether err is a LoadFailure.
func IsLoadFailure(err error) bool {
	var lf *LoadFailure
	return errors.As(err, &lf)
}
