// internal/domain/buyer/entity.go
package buyer

import "marketplace-service/internal/domain/contact"

// BuyerProfile is a contact merged with its buyer account. Account fields
// win, so ID is the account id, which the buyer UI uses for deals.
type BuyerProfile struct {
	ID string `json:"id"`
	contact.Contact
	contact.Account
}

func NewBuyerProfile(c contact.Contact, a contact.Account) BuyerProfile {
	id := a.ID
	if id == "" {
		id = c.ID
	}
	return BuyerProfile{ID: id, Contact: c, Account: a}
}
