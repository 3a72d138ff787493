// internal/service/catalog/catalog.go
package catalog

import (
	"context"
	"fmt"

	"marketplace-service/internal/domain/certification"
	"marketplace-service/internal/domain/product"
	"marketplace-service/internal/domain/vendor"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"
	"marketplace-service/internal/repository/crm"
	"marketplace-service/internal/service/aggregation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SearchByCategory = "category"
	SearchByWord     = "word"
)

// ObjectRemover deletes a stored image by its public URL.
type ObjectRemover interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

type CatalogService struct {
	products crm.Store[product.Product]
	vendors  crm.Store[vendor.Vendor]
	certs    crm.Store[certification.Certification]
	media    ObjectRemover
	logger   *zap.Logger
}

func NewCatalogService(
	products crm.Store[product.Product],
	vendors crm.Store[vendor.Vendor],
	certs crm.Store[certification.Certification],
	media ObjectRemover,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		vendors:  vendors,
		certs:    certs,
		media:    media,
		logger:   logger,
	}
}

func (s *CatalogService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

// ListProducts returns every product with its seller's location, rating and certificates.
func (s *CatalogService) ListProducts(ctx context.Context) ([]product.EnrichedProduct, error) {
	var (
		products []product.Product
		vendors  []vendor.Vendor
		certs    []certification.Certification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(gctx, product.ListFields)
		return err
	})
	g.Go(func() error {
		var err error
		vendors, err = s.vendors.List(gctx, vendor.JoinFields)
		return err
	})
	g.Go(func() error {
		var err error
		certs, err = s.certs.List(gctx, certification.JoinFields)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).Error("failed to list products", zap.Error(err))
		return nil, err
	}

	return aggregation.EnrichProducts(products, vendors, certs), nil
}

// SearchProducts filters products by exact category or by free-text word.
func (s *CatalogService) SearchProducts(ctx context.Context, searchType, word string) ([]product.EnrichedProduct, error) {
	var q crm.Query
	switch searchType {
	case SearchByCategory:
		q = crm.Equals("Product_Category", word)
	case SearchByWord:
		q = crm.Word(word)
	default:
		return nil, xerrors.Invalid("Invalid search type")
	}

	products, err := s.products.Search(ctx, q, product.ListFields)
	if err != nil {
		s.log(ctx).Error("failed to search products", zap.String("type", searchType), zap.Error(err))
		return nil, err
	}
	if len(products) == 0 {
		return []product.EnrichedProduct{}, nil
	}

	vendors, certs, err := s.joinData(ctx)
	if err != nil {
		return nil, err
	}
	return aggregation.EnrichProducts(products, vendors, certs), nil
}

// SearchProductsByRating returns the products of every vendor whose average
// rating starts with rating.
func (s *CatalogService) SearchProductsByRating(ctx context.Context, rating string) ([]product.EnrichedProduct, error) {
	matched, err := s.vendors.Search(ctx, crm.StartsWith("Average_Rating", rating), vendor.SearchFields)
	if err != nil {
		s.log(ctx).Error("failed to search vendors by rating", zap.String("rating", rating), zap.Error(err))
		return nil, err
	}
	if len(matched) == 0 {
		return []product.EnrichedProduct{}, nil
	}

	var (
		products []product.Product
		certs    []certification.Certification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(gctx, product.ListFields)
		return err
	})
	g.Go(func() error {
		var err error
		certs, err = s.certs.List(gctx, certification.JoinFields)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).Error("failed to load products for rating search", zap.Error(err))
		return nil, err
	}

	owned := aggregation.ProductsOfVendors(products, aggregation.VendorIDs(matched))
	return aggregation.EnrichProducts(owned, matched, certs), nil
}

func (s *CatalogService) SellerProducts(ctx context.Context, vendorID string) ([]product.Product, error) {
	products, err := s.products.Search(ctx, crm.Equals("Vendor_Name", vendorID), product.SellerFields)
	if err != nil {
		s.log(ctx).Error("failed to get seller products", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}
	return products, nil
}

// CreateProduct returns the CRM result code.
func (s *CatalogService) CreateProduct(ctx context.Context, req *product.CreateProductRequest) (string, error) {
	if req.MinPrice.Valid && req.MaxPrice.Valid && req.MinPrice.Decimal.GreaterThan(req.MaxPrice.Decimal) {
		return "", xerrors.Invalid("minimum price must not exceed maximum price")
	}

	res, err := s.products.Create(ctx, req.ToRecord())
	if err != nil {
		s.log(ctx).Error("failed to create product", zap.String("vendor_id", req.VendorID), zap.Error(err))
		return "", err
	}

	s.log(ctx).Info("product created", zap.String("product_id", res.Details.ID), zap.String("vendor_id", req.VendorID))
	return res.Code, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, req *product.UpdateProductRequest) error {
	record, err := req.ToRecord(id)
	if err != nil {
		return err
	}
	if _, err := s.products.Update(ctx, id, record); err != nil {
		s.log(ctx).Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return err
	}
	return nil
}

// DeleteProduct removes the product image, then the product. A failed image
// delete is logged and does not stop the product delete.
func (s *CatalogService) DeleteProduct(ctx context.Context, id, fileURL string) error {
	if fileURL != "" && s.media != nil {
		if err := s.media.DeleteByURL(ctx, fileURL); err != nil {
			s.log(ctx).Warn("failed to delete product image",
				zap.String("product_id", id),
				zap.String("file_url", fileURL),
				zap.Error(err),
			)
		}
	}

	if _, err := s.products.Delete(ctx, id); err != nil {
		s.log(ctx).Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

// joinData fetches the vendor and certification collections products are enriched with.
func (s *CatalogService) joinData(ctx context.Context) ([]vendor.Vendor, []certification.Certification, error) {
	var (
		vendors []vendor.Vendor
		certs   []certification.Certification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vendors, err = s.vendors.List(gctx, vendor.JoinFields)
		return err
	})
	g.Go(func() error {
		var err error
		certs, err = s.certs.List(gctx, certification.JoinFields)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).Error("failed to load vendors and certifications", zap.Error(err))
		return nil, nil, err
	}
	return vendors, certs, nil
}
