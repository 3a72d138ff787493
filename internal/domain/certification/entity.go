// internal/domain/certification/entity.go
package certification

import "marketplace-service/internal/domain/shared"

// Certification mirrors a record of the CRM Certifications module.
type Certification struct {
	ID                  string      `json:"id,omitempty"`
	Name                string      `json:"Name,omitempty"`
	CertificationNumber string      `json:"Certification_number,omitempty"`
	Issuer              string      `json:"Issuer,omitempty"`
	IssuedDate          string      `json:"Issued_Date,omitempty"`
	ExpiryDate          string      `json:"Expiry_Date,omitempty"`
	Vendor              *shared.Ref `json:"Vendor,omitempty"`
}

// VendorID is the grouping key; empty when the lookup is missing.
func (c Certification) VendorID() string {
	return shared.RefID(c.Vendor)
}

var (
	JoinFields    = []string{"Name", "Vendor"}
	ProfileFields = []string{"id", "Certification_number", "Name", "Issued_Date", "Expiry_Date", "Issuer"}
)
