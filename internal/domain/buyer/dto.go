// internal/domain/buyer/dto.go
package buyer

import "marketplace-service/internal/domain/contact"

type UpdateBuyerRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone"`
	JobTitle       string `json:"jobTitle"`
	BuyerAccountID string `json:"buyerAccountId" binding:"required"`
	CompanyName    string `json:"companyName"`
	Website        string `json:"website"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zipCode"`
	Country        string `json:"country"`
	Bio            string `json:"bio"`
}

// ToRecords splits the profile form into the contact and account updates.
func (r *UpdateBuyerRequest) ToRecords(contactID string) (contact.Record, contact.AccountRecord) {
	c := contact.Record{
		ID:                  contactID,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Email:               r.Email,
		Mobile:              r.Phone,
		Title:               r.JobTitle,
		MailingStreet:       r.Address,
		MailingCity:         r.City,
		MailingState:        r.State,
		MailingCountry:      r.Country,
		MailingZip:          r.ZipCode,
		BusinessDescription: r.Bio,
	}
	a := contact.AccountRecord{
		ID:                  r.BuyerAccountID,
		AccountName:         r.CompanyName,
		Website:             r.Website,
		BusinessDescription: r.Bio,
	}
	return c, a
}
