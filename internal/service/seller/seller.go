// internal/service/seller/seller.go
package seller

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/domain/contact"
	"marketplace-service/internal/domain/shared"
	"marketplace-service/internal/domain/vendor"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/service/aggregation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SellerService struct {
	contacts crm.Store[contact.Contact]
	vendors  crm.Store[vendor.Vendor]
	certs    crm.Store[certification.Certification]
	now      func() time.Time
	logger   *zap.Logger
}

func NewSellerService(
	contacts crm.Store[contact.Contact],
	vendors crm.Store[vendor.Vendor],
	certs crm.Store[certification.Certification],
	logger *zap.Logger,
) *SellerService {
	return &SellerService{
		contacts: contacts,
		vendors:  vendors,
		certs:    certs,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *SellerService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

var sellerContactFields = append(append([]string{}, contact.ContactFields...), "Vendor_Account")

// GetSeller loads the seller contact and merges in its vendor record.
func (s *SellerService) GetSeller(ctx context.Context, contactID string) (*vendor.SellerProfile, error) {
	c, err := s.contacts.Get(ctx, contactID, sellerContactFields)
	if err != nil {
		s.log(ctx).Error("failed to get seller contact", zap.String("contact_id", contactID), zap.Error(err))
		return nil, err
	}

	vendorID := shared.RefID(c.VendorAccount)
	if vendorID == "" {
		return nil, fmt.Errorf("%w: contact %s has no vendor account", xerrors.ErrNotFound, contactID)
	}

	v, err := s.vendors.Get(ctx, vendorID, vendor.ProfileFields)
	if err != nil {
		s.log(ctx).Error("failed to get vendor", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}

	profile := vendor.NewSellerProfile(c, v)
	return &profile, nil
}

// UpdateSeller writes the contact half and then the vendor half of the profile form.
func (s *SellerService) UpdateSeller(ctx context.Context, contactID string, req *vendor.UpdateSellerRequest) error {
	contactRecord, vendorRecord, err := req.ToRecords(contactID, s.now())
	if err != nil {
		return err
	}

	if _, err := s.contacts.Update(ctx, contactID, contactRecord); err != nil {
		s.log(ctx).Error("failed to update seller contact", zap.String("contact_id", contactID), zap.Error(err))
		return err
	}
	if _, err := s.vendors.Update(ctx, req.VendorAccountID, vendorRecord); err != nil {
		s.log(ctx).Error("failed to update vendor", zap.String("vendor_id", req.VendorAccountID), zap.Error(err))
		return err
	}
	return nil
}

func (s *SellerService) ListVendors(ctx context.Context) ([]vendor.VendorWithCertifications, error) {
	return s.vendorsWithCertifications(ctx, func(ctx context.Context) ([]vendor.Vendor, error) {
		return s.vendors.List(ctx, vendor.ListFields)
	})
}

func (s *SellerService) SearchSellers(ctx context.Context, word string) ([]vendor.VendorWithCertifications, error) {
	return s.vendorsWithCertifications(ctx, func(ctx context.Context) ([]vendor.Vendor, error) {
		return s.vendors.Search(ctx, crm.Word(word), vendor.ListFields)
	})
}

// SearchSellersByRating matches vendors whose average rating starts with rating.
func (s *SellerService) SearchSellersByRating(ctx context.Context, rating string) ([]vendor.VendorWithCertifications, error) {
	matched, err := s.vendors.Search(ctx, crm.StartsWith("Average_Rating", rating), vendor.SearchFields)
	if err != nil {
		s.log(ctx).Error("failed to search vendors by rating", zap.String("rating", rating), zap.Error(err))
		return nil, err
	}
	if len(matched) == 0 {
		return []vendor.VendorWithCertifications{}, nil
	}

	certs, err := s.certs.List(ctx, certification.JoinFields)
	if err != nil {
		s.log(ctx).Error("failed to list certifications", zap.Error(err))
		return nil, err
	}
	return aggregation.AttachCertifications(matched, certs), nil
}

// SearchSellersByCertification returns the vendors holding a certification
// whose name starts with prefix, each with all of its certifications.
func (s *SellerService) SearchSellersByCertification(ctx context.Context, prefix string) ([]vendor.VendorWithCertifications, error) {
	hits, err := s.certs.Search(ctx, crm.StartsWith("Name", prefix), certification.JoinFields)
	if err != nil {
		s.log(ctx).Error("failed to search certifications", zap.String("prefix", prefix), zap.Error(err))
		return nil, err
	}
	if len(hits) == 0 {
		return []vendor.VendorWithCertifications{}, nil
	}

	var (
		vendors []vendor.Vendor
		all     []certification.Certification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vendors, err = s.vendors.List(gctx, vendor.SearchFields)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.certs.List(gctx, certification.JoinFields)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).Error("failed to load vendors for certification search", zap.Error(err))
		return nil, err
	}

	holders := aggregation.FilterVendorsByIDs(vendors, aggregation.VendorIDsOfCertifications(hits))
	return aggregation.AttachCertifications(holders, all), nil
}

func (s *SellerService) vendorsWithCertifications(
	ctx context.Context,
	fetch func(context.Context) ([]vendor.Vendor, error),
) ([]vendor.VendorWithCertifications, error) {
	var (
		vendors []vendor.Vendor
		certs   []certification.Certification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vendors, err = fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		certs, err = s.certs.List(gctx, certification.JoinFields)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).Error("failed to load vendors", zap.Error(err))
		return nil, err
	}
	return aggregation.AttachCertifications(vendors, certs), nil
}
