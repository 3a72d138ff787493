// internal/domain/deal/dto.go
package deal

import (
	"strconv"

	"marketplace-service/internal/domain/shared"
	xerrors "marketplace-service/internal/pkg/errors"
)

type CreateDealRequest struct {
	BuyerAccountID string `json:"buyerAccountId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	ProductID      string `json:"productId"`
	SellerID       string `json:"sellerId" binding:"required"`
	ClosingDate    string `json:"closingDate"`
}

// ToRecord builds a new deal, always in the initial stage with no quantity.
func (r *CreateDealRequest) ToRecord() Record {
	return Record{
		Account:     shared.RefTo(r.BuyerAccountID),
		Name:        r.Name,
		Vendor:      shared.RefTo(r.SellerID),
		Product:     shared.RefTo(r.ProductID),
		ClosingDate: r.ClosingDate,
		Stage:       InitialStage,
		Quantity:    shared.NumberFromInt(0),
	}
}

// UpdateDealRequest carries either a new stage or a new quantity.
type UpdateDealRequest struct {
	Stage    *string        `json:"stage"`
	Quantity *shared.Number `json:"quantity"`
}

func (r *UpdateDealRequest) Validate() error {
	hasStage := r.Stage != nil
	hasQuantity := r.Quantity != nil && r.Quantity.Valid
	switch {
	case hasStage && hasQuantity:
		return xerrors.Invalid("send either stage or quantity, not both")
	case !hasStage && !hasQuantity:
		return xerrors.Invalid("stage or quantity is required")
	case hasQuantity:
		q := r.Quantity.Decimal
		if q.IsNegative() || !q.Equal(q.Truncate(0)) {
			return xerrors.Invalid("quantity must be a non-negative whole number")
		}
	}
	return nil
}

type FeedbackRequest struct {
	DealID   string `json:"dealId" binding:"required"`
	VendorID string `json:"vendorId" binding:"required"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// Record writes the buyer's rating onto the deal.
func (r *FeedbackRequest) Record() Record {
	return Record{
		ID:           r.DealID,
		BuyerRating:  strconv.Itoa(r.Rating),
		BuyerComment: r.Comments,
	}
}
