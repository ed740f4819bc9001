package models

import "github.com/GTDGit/catalog_api/pkg/marketplace"

// SourceRecord is a raw backend entity tagged with its kind. Exactly one of
// Goods, Service or External is set, matching Kind.
type SourceRecord struct {
	Kind     SourceKind
	Goods    *marketplace.GoodsEntity
	Service  *marketplace.ServiceEntity
	External *marketplace.ExternalResult
}

// GoodsRecord wraps a goods entity.
func GoodsRecord(g *marketplace.GoodsEntity) SourceRecord {
	return SourceRecord{Kind: SourceGoods, Goods: g}
}

// ServiceRecord wraps a service entity.
func ServiceRecord(s *marketplace.ServiceEntity) SourceRecord {
	return SourceRecord{Kind: SourceService, Service: s}
}

// ExternalRecord wraps a third-party search hit.
func ExternalRecord(e *marketplace.ExternalResult) SourceRecord {
	return SourceRecord{Kind: SourceExternal, External: e}
}

// Consistent reports whether the payload matches the tag.
func (r SourceRecord) Consistent() bool {
	switch r.Kind {
	case SourceGoods:
		return r.Goods != nil && r.Service == nil && r.External == nil
	case SourceService:
		return r.Service != nil && r.Goods == nil && r.External == nil
	case SourceExternal:
		return r.External != nil && r.Goods == nil && r.Service == nil
	}
	return false
}

// ID returns the listing identity of the wrapped entity.
func (r SourceRecord) ID() ListingID {
	switch r.Kind {
	case SourceGoods:
		if r.Goods != nil {
			return ListingID{Kind: SourceGoods, ID: r.Goods.ID}
		}
	case SourceService:
		if r.Service != nil {
			return ListingID{Kind: SourceService, ID: r.Service.ID}
		}
	case SourceExternal:
		if r.External != nil {
			return ListingID{Kind: SourceExternal, Key: r.External.Source + ":" + r.External.Key}
		}
	}
	return ListingID{Kind: r.Kind}
}
