package crm

import (
	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/domain/contact"
	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/domain/product"
	"marketplace-service/internal/domain/vendor"
)

// CRM module API names.
const (
	ModuleContacts       = "Contacts"
	ModuleAccounts       = "Accounts"
	ModuleVendors        = "Vendors"
	ModuleProducts       = "Products"
	ModuleDeals          = "Deals"
	ModuleCertifications = "Certifications"
)

// Repositories groups the typed modules the services work with.
type Repositories struct {
	Contacts       Module[contact.Contact]
	Accounts       Module[contact.Account]
	Vendors        Module[vendor.Vendor]
	Products       Module[product.Product]
	Deals          Module[deal.Deal]
	Certifications Module[certification.Certification]
}

func NewRepositories(c *Client) *Repositories {
	return &Repositories{
		Contacts:       NewModule[contact.Contact](c, ModuleContacts),
		Accounts:       NewModule[contact.Account](c, ModuleAccounts),
		Vendors:        NewModule[vendor.Vendor](c, ModuleVendors),
		Products:       NewModule[product.Product](c, ModuleProducts),
		Deals:          NewModule[deal.Deal](c, ModuleDeals),
		Certifications: NewModule[certification.Certification](c, ModuleCertifications),
	}
}
