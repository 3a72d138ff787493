// Package aggregation joins CRM collections into the denormalized records the
// marketplace UI renders. Everything here is pure and runs in linear time.
package aggregation

import (
	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/domain/product"
	"marketplace-service/internal/domain/shared"
	"marketplace-service/internal/domain/vendor"
)

// IndexVendors maps vendor id to vendor. Later duplicates win.
func IndexVendors(vendors []vendor.Vendor) map[string]vendor.Vendor {
	index := make(map[string]vendor.Vendor, len(vendors))
	for _, v := range vendors {
		index[v.ID] = v
	}
	return index
}

// GroupCertificationNames maps vendor id to certification names in input
// order. Duplicates are kept; certifications without a vendor are skipped.
func GroupCertificationNames(certs []certification.Certification) map[string][]string {
	groups := make(map[string][]string)
	for _, c := range certs {
		id := c.VendorID()
		if id == "" {
			continue
		}
		groups[id] = append(groups[id], c.Name)
	}
	return groups
}

// SellerLocation renders "state, country". An empty state still yields the
// separator, which the UI has always shown as ", USA".
func SellerLocation(state, country string) string {
	if country == "" {
		return state
	}
	return state + ", " + country
}

// EnrichProducts attaches seller data to every product. The output has one
// record per product in input order; unknown sellers get empty defaults.
func EnrichProducts(products []product.Product, vendors []vendor.Vendor, certs []certification.Certification) []product.EnrichedProduct {
	byID := IndexVendors(vendors)
	names := GroupCertificationNames(certs)

	out := make([]product.EnrichedProduct, 0, len(products))
	for _, p := range products {
		sellerID := p.VendorID()
		ep := product.EnrichedProduct{
			Product:      p,
			SellerID:     sellerID,
			SellerName:   shared.RefName(p.Vendor),
			Certificates: certificateList(names[sellerID]),
		}
		if v, ok := byID[sellerID]; ok && sellerID != "" {
			rating := v.AverageRating
			engagement := v.EngagementScore
			ep.SellerLocation = SellerLocation(v.State, v.Country)
			ep.SellerRating = &rating
			ep.SellerEngScore = &engagement
		}
		out = append(out, ep)
	}
	return out
}

// AttachCertifications pairs every vendor with its certification names.
func AttachCertifications(vendors []vendor.Vendor, certs []certification.Certification) []vendor.VendorWithCertifications {
	names := GroupCertificationNames(certs)

	out := make([]vendor.VendorWithCertifications, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, vendor.VendorWithCertifications{
			Vendor:         v,
			Certifications: certificateList(names[v.ID]),
		})
	}
	return out
}

// FilterVendorsByIDs keeps the vendors whose id is in ids, preserving order.
func FilterVendorsByIDs(vendors []vendor.Vendor, ids map[string]struct{}) []vendor.Vendor {
	out := make([]vendor.Vendor, 0, len(ids))
	for _, v := range vendors {
		if _, ok := ids[v.ID]; ok {
			out = append(out, v)
		}
	}
	return out
}

// VendorIDsOfCertifications collects the distinct vendor ids referenced by certs.
func VendorIDsOfCertifications(certs []certification.Certification) map[string]struct{} {
	ids := make(map[string]struct{}, len(certs))
	for _, c := range certs {
		if id := c.VendorID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// VendorIDs collects the ids of vendors.
func VendorIDs(vendors []vendor.Vendor) map[string]struct{} {
	ids := make(map[string]struct{}, len(vendors))
	for _, v := range vendors {
		ids[v.ID] = struct{}{}
	}
	return ids
}

// ProductsOfVendors keeps the products sold by any of vendorIDs, preserving order.
func ProductsOfVendors(products []product.Product, vendorIDs map[string]struct{}) []product.Product {
	out := make([]product.Product, 0)
	for _, p := range products {
		if _, ok := vendorIDs[p.VendorID()]; ok {
			out = append(out, p)
		}
	}
	return out
}

// certificateList copies names into a list that always encodes as an array.
func certificateList(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
