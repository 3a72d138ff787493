// internal/domain/contact/entity.go
package contact

import "marketplace-service/internal/domain/shared"

// Contact is the person record behind every buyer and seller login.
// BuyerAccount is set for buyers, VendorAccount for sellers.
type Contact struct {
	ID             string      `json:"id"`
	FirstName      string      `json:"First_Name,omitempty"`
	LastName       string      `json:"Last_Name,omitempty"`
	Email          string      `json:"Email,omitempty"`
	Mobile         string      `json:"Mobile,omitempty"`
	Title          string      `json:"Title,omitempty"`
	BuyerAccount   *shared.Ref `json:"Buyer_Account,omitempty"`
	VendorAccount  *shared.Ref `json:"Vendor_Account,omitempty"`
	MailingStreet  string      `json:"Mailing_Street,omitempty"`
	MailingCity    string      `json:"Mailing_City,omitempty"`
	MailingState   string      `json:"Mailing_State,omitempty"`
	MailingCountry string      `json:"Mailing_Country,omitempty"`
	MailingZip     string      `json:"Mailing_Zip,omitempty"`
}

// Account is the buyer company.
type Account struct {
	ID                  string `json:"id"`
	AccountName         string `json:"Account_Name,omitempty"`
	Website             string `json:"Website,omitempty"`
	BusinessDescription string `json:"Business_Description,omitempty"`
}

// Record is the write payload for the Contacts module.
type Record struct {
	ID                  string `json:"id,omitempty"`
	FirstName           string `json:"First_Name,omitempty"`
	LastName            string `json:"Last_Name,omitempty"`
	Email               string `json:"Email,omitempty"`
	Mobile              string `json:"Mobile,omitempty"`
	Title               string `json:"Title,omitempty"`
	MailingStreet       string `json:"Mailing_Street,omitempty"`
	MailingCity         string `json:"Mailing_City,omitempty"`
	MailingState        string `json:"Mailing_State,omitempty"`
	MailingCountry      string `json:"Mailing_Country,omitempty"`
	MailingZip          string `json:"Mailing_Zip,omitempty"`
	BusinessDescription string `json:"Business_Description,omitempty"`
}

// AccountRecord is the write payload for the Accounts module.
type AccountRecord struct {
	ID                  string `json:"id,omitempty"`
	AccountName         string `json:"Account_Name,omitempty"`
	Website             string `json:"Website,omitempty"`
	BusinessDescription string `json:"Business_Description,omitempty"`
}

// ContactFields is the projection requested for profile pages.
// The account lookup field is appended by the caller.
var ContactFields = []string{
	"First_Name", "Last_Name", "Email", "Mobile", "Title",
	"Mailing_Street", "Mailing_City", "Mailing_State", "Mailing_Country", "Mailing_Zip",
}

var AccountFields = []string{"Account_Name", "Website", "Business_Description"}
