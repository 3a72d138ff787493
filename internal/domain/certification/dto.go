// internal/domain/certification/dto.go
package certification

import (
	"strings"
	"time"

	"marketplace-service/internal/domain/shared"
	xerrors "marketplace-service/internal/pkg/errors"
)

// DateLayout is the CRM date format.
const DateLayout = "2006-01-02"

type CertificationRequest struct {
	CertificationNo string `json:"certificationNo"`
	Name            string `json:"name" binding:"required"`
	Issuer          string `json:"issuer"`
	IssueDate       string `json:"issueDate"`
	ExpiryDate      string `json:"expiryDate"`
}

// Validate checks date formats and that expiry falls after issue.
func (r *CertificationRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return xerrors.Invalid("certification name is required")
	}

	var issued, expires time.Time
	var err error
	if r.IssueDate != "" {
		if issued, err = time.Parse(DateLayout, r.IssueDate); err != nil {
			return xerrors.Invalid("issue date %q must be YYYY-MM-DD", r.IssueDate)
		}
	}
	if r.ExpiryDate != "" {
		if expires, err = time.Parse(DateLayout, r.ExpiryDate); err != nil {
			return xerrors.Invalid("expiry date %q must be YYYY-MM-DD", r.ExpiryDate)
		}
	}
	if !issued.IsZero() && !expires.IsZero() && !expires.After(issued) {
		return xerrors.Invalid("expiry date must be after issue date")
	}
	return nil
}

// ToCreate builds the payload for a new certification owned by vendorID.
func (r *CertificationRequest) ToCreate(vendorID string) Certification {
	c := r.toRecord()
	c.Vendor = shared.RefTo(vendorID)
	return c
}

// ToUpdate builds the payload for an existing certification.
func (r *CertificationRequest) ToUpdate(id string) Certification {
	c := r.toRecord()
	c.ID = id
	return c
}

func (r *CertificationRequest) toRecord() Certification {
	return Certification{
		Name:                r.Name,
		CertificationNumber: r.CertificationNo,
		Issuer:              r.Issuer,
		IssuedDate:          r.IssueDate,
		ExpiryDate:          r.ExpiryDate,
	}
}
