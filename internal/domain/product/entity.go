// internal/domain/product/entity.go
package product

import "marketplace-service/internal/domain/shared"

// Product mirrors a record of the CRM Products module.
type Product struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"Product_Name,omitempty"`
	Description          string        `json:"Product_Description,omitempty"`
	Image                string        `json:"Image,omitempty"`
	PriceRange           string        `json:"Price_Range,omitempty"`
	MinimumOrderQuantity shared.Number `json:"Minimum_Order_Quantity,omitzero"`
	Category             string        `json:"Product_Category,omitempty"`
	Vendor               *shared.Ref   `json:"Vendor_Name,omitempty"`
	PriceMin             shared.Number `json:"Price_Min,omitzero"`
	PriceMax             shared.Number `json:"Price_Max,omitzero"`
	HSCode               string        `json:"HS_Code,omitempty"`
	ITCHSCode            string        `json:"ITC_HS_Code,omitempty"`
}

// VendorID is the join key against the Vendors module.
func (p Product) VendorID() string {
	return shared.RefID(p.Vendor)
}

// EnrichedProduct is a product with its seller's display data attached.
// SellerRating and SellerEngScore are nil when the seller is unknown and
// are then left out of the JSON entirely.
type EnrichedProduct struct {
	Product
	SellerID       string         `json:"sellerId"`
	SellerName     string         `json:"sellerName"`
	SellerLocation string         `json:"sellerLocation"`
	SellerRating   *shared.Number `json:"sellerRating,omitempty"`
	SellerEngScore *shared.Number `json:"sellerEngScore,omitempty"`
	Certificates   []string       `json:"certificates"`
}

// Record is the write payload for the Products module.
type Record struct {
	ID                   string        `json:"id,omitempty"`
	Name                 string        `json:"Product_Name,omitempty"`
	Description          string        `json:"Product_Description,omitempty"`
	Category             string        `json:"Product_Category,omitempty"`
	PriceMin             shared.Number `json:"Price_Min,omitzero"`
	PriceMax             shared.Number `json:"Price_Max,omitzero"`
	MinimumOrderQuantity shared.Number `json:"Minimum_Order_Quantity,omitzero"`
	Image                string        `json:"Image,omitempty"`
	HSCode               string        `json:"HS_Code,omitempty"`
	ITCHSCode            string        `json:"ITC_HS_Code,omitempty"`
	Vendor               *shared.Ref   `json:"Vendor_Name,omitempty"`
}

var (
	ListFields   = []string{"id", "Product_Name", "Product_Description", "Image", "Price_Range", "Minimum_Order_Quantity", "Vendor_Name", "Product_Category"}
	SellerFields = []string{"id", "Product_Name", "Product_Description", "Product_Category", "Price_Range", "Minimum_Order_Quantity", "Image"}
)
