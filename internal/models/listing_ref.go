package models

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidListingPath is returned by ParseListingPath for paths it does not route.
var ErrInvalidListingPath = errors.New("invalid listing path")

// ListingRef is what a caller knows about a listing before resolution:
// a slug, or a numeric id with an optional kind hint.
type ListingRef struct {
	Slug     string
	ID       int64
	KindHint SourceKind
}

// BySlug reports whether the reference is slug based.
func (r ListingRef) BySlug() bool {
	return r.Slug != ""
}

func (r ListingRef) String() string {
	var b strings.Builder
	if r.KindHint != "" {
		b.WriteString(string(r.KindHint))
		b.WriteString(":")
	}
	if r.BySlug() {
		b.WriteString(r.Slug)
	} else {
		b.WriteString(strconv.FormatInt(r.ID, 10))
	}
	return b.String()
}

// ParseListingPath maps a public URL path to a ListingRef.
//
//	/listing/:slug     slug, no hint
//	/listing/id/:id    id, goods (legacy links)
//	/goods/:slug       slug, goods
//	/service/:slug     slug, service
func ParseListingPath(path string) (ListingRef, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// tolerate a leading API version segment
	if len(parts) > 0 && len(parts[0]) > 1 && parts[0][0] == 'v' {
		if _, err := strconv.Atoi(parts[0][1:]); err == nil {
			parts = parts[1:]
		}
	}

	switch {
	case len(parts) == 2 && parts[0] == "listing" && parts[1] != "":
		return ListingRef{Slug: parts[1]}, nil
	case len(parts) == 3 && parts[0] == "listing" && parts[1] == "id":
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || id <= 0 {
			return ListingRef{}, ErrInvalidListingPath
		}
		return ListingRef{ID: id, KindHint: SourceGoods}, nil
	case len(parts) == 2 && parts[0] == "goods" && parts[1] != "":
		return ListingRef{Slug: parts[1], KindHint: SourceGoods}, nil
	case len(parts) == 2 && parts[0] == "service" && parts[1] != "":
		return ListingRef{Slug: parts[1], KindHint: SourceService}, nil
	}
	return ListingRef{}, ErrInvalidListingPath
}
