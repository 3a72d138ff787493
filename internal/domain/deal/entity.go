// internal/domain/deal/entity.go
package deal

import (
	"encoding/json"

	"marketplace-service/internal/domain/shared"
)

// Deal mirrors a record of the CRM Deals module.
type Deal struct {
	ID                 string          `json:"id"`
	Name               string          `json:"Deal_Name,omitempty"`
	Account            *shared.Ref     `json:"Account_Name,omitempty"`
	Vendor             *shared.Ref     `json:"Vendor_Name,omitempty"`
	Product            *shared.Ref     `json:"Product_Name,omitempty"`
	Stage              Stage           `json:"Stage,omitempty"`
	Quantity           shared.Number   `json:"Quantity,omitzero"`
	InitiatedDate      string          `json:"Deal_Initiated_Date,omitempty"`
	ClosingDate        string          `json:"Closing_Date,omitempty"`
	EstimatedDealRange json.RawMessage `json:"Estimated_Deal_Range,omitempty"`
	BuyerRating        string          `json:"Buyer_Rating,omitempty"`
	BuyerComment       string          `json:"Buyer_Comment,omitempty"`
}

// Record is the write payload for the Deals module.
type Record struct {
	ID           string        `json:"id,omitempty"`
	Name         string        `json:"Deal_Name,omitempty"`
	Account      *shared.Ref   `json:"Account_Name,omitempty"`
	Vendor       *shared.Ref   `json:"Vendor_Name,omitempty"`
	Product      *shared.Ref   `json:"Product_Name,omitempty"`
	ClosingDate  string        `json:"Closing_Date,omitempty"`
	Stage        Stage         `json:"Stage,omitempty"`
	Quantity     shared.Number `json:"Quantity,omitzero"`
	BuyerRating  string        `json:"Buyer_Rating,omitempty"`
	BuyerComment string        `json:"Buyer_Comment,omitempty"`
}

var (
	BuyerFields  = []string{"id", "Deal_Name", "Vendor_Name", "Product_Name", "Stage", "Deal_Initiated_Date", "Closing_Date", "Estimated_Deal_Range"}
	SellerFields = []string{"id", "Deal_Name", "Account_Name", "Vendor_Name", "Product_Name", "Stage", "Deal_Initiated_Date", "Closing_Date", "Estimated_Deal_Range", "Quantity"}
	StateFields  = []string{"id", "Stage", "Account_Name", "Vendor_Name"}
)
