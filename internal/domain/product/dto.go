// internal/domain/product/dto.go
package product

import (
	"regexp"

	"marketplace-service/internal/domain/shared"
	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	ProductName      string        `json:"productName" binding:"required"`
	Description      string        `json:"description"`
	Category         string        `json:"category"`
	MinPrice         shared.Number `json:"minPrice"`
	MaxPrice         shared.Number `json:"maxPrice"`
	MinOrderQuantity shared.Number `json:"minOrderQuantity"`
	FileURL          string        `json:"fileUrl"`
	VendorID         string        `json:"vendorId" binding:"required"`
	HSCode           string        `json:"hsCode"`
	ITCHSCode        string        `json:"itcHsCode"`
}

type UpdateProductRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	PriceRange  string        `json:"priceRange" binding:"required"`
	MOQ         shared.Number `json:"mod"`
}

type DeleteProductRequest struct {
	FileURL string `json:"fileUrl"`
}

// ToRecord maps the create form onto the CRM payload.
func (r *CreateProductRequest) ToRecord() Record {
	return Record{
		Name:                 r.ProductName,
		Description:          r.Description,
		Category:             r.Category,
		PriceMin:             r.MinPrice,
		PriceMax:             r.MaxPrice,
		MinimumOrderQuantity: r.MinOrderQuantity,
		Image:                r.FileURL,
		HSCode:               r.HSCode,
		ITCHSCode:            r.ITCHSCode,
		Vendor:               shared.RefTo(r.VendorID),
	}
}

// ToRecord maps the edit form onto the CRM payload. The free-text price
// range is split into its numeric bounds.
func (r *UpdateProductRequest) ToRecord(id string) (Record, error) {
	lo, hi, err := ParsePriceRange(r.PriceRange)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:                   id,
		Name:                 r.Name,
		Description:          r.Description,
		Category:             r.Category,
		PriceMin:             shared.NewNumber(lo),
		PriceMax:             shared.NewNumber(hi),
		MinimumOrderQuantity: r.MOQ,
	}, nil
}

var priceToken = regexp.MustCompile(`\d+(\.\d+)?`)

// ParsePriceRange extracts the first two numbers of a text such as
// "$10 - $25.50". Fewer than two numbers is a validation error.
func ParsePriceRange(text string) (decimal.Decimal, decimal.Decimal, error) {
	matches := priceToken.FindAllString(text, 2)
	if len(matches) < 2 {
		return decimal.Zero, decimal.Zero, xerrors.Invalid("price range %q must contain a minimum and a maximum", text)
	}
	lo, err := decimal.NewFromString(matches[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, xerrors.Invalid("price range %q: %v", text, err)
	}
	hi, err := decimal.NewFromString(matches[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, xerrors.Invalid("price range %q: %v", text, err)
	}
	return lo, hi, nil
}
