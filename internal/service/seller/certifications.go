// internal/service/seller/certifications.go
package seller

import (
	"context"

	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/repository/crm"

	"go.uber.org/zap"
)

// ListCertifications returns the certifications owned by vendorID.
func (s *SellerService) ListCertifications(ctx context.Context, vendorID string) ([]certification.Certification, error) {
	certs, err := s.certs.Search(ctx, crm.Equals("Vendor", vendorID), certification.ProfileFields)
	if err != nil {
		s.log(ctx).Error("failed to get seller certifications", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}
	return certs, nil
}

func (s *SellerService) CreateCertification(ctx context.Context, vendorID string, req *certification.CertificationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	res, err := s.certs.Create(ctx, req.ToCreate(vendorID))
	if err != nil {
		s.log(ctx).Error("failed to create certification", zap.String("vendor_id", vendorID), zap.Error(err))
		return "", err
	}
	return res.Code, nil
}

func (s *SellerService) UpdateCertification(ctx context.Context, id string, req *certification.CertificationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	res, err := s.certs.Update(ctx, id, req.ToUpdate(id))
	if err != nil {
		s.log(ctx).Error("failed to update certification", zap.String("certification_id", id), zap.Error(err))
		return "", err
	}
	return res.Code, nil
}

func (s *SellerService) DeleteCertification(ctx context.Context, id string) (string, error) {
	res, err := s.certs.Delete(ctx, id)
	if err != nil {
		s.log(ctx).Error("failed to delete certification", zap.String("certification_id", id), zap.Error(err))
		return "", err
	}
	return res.Code, nil
}
