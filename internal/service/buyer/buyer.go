// internal/service/buyer/buyer.go
package buyer

import (
	"context"
	"fmt"

	"marketplace-service/internal/domain/buyer"
	"marketplace-service/internal/domain/contact"
	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/domain/shared"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"
	"marketplace-service/internal/repository/crm"

	"go.uber.org/zap"
)

type BuyerService struct {
	contacts crm.Store[contact.Contact]
	accounts crm.Store[contact.Account]
	deals    crm.Store[deal.Deal]
	logger   *zap.Logger
}

func NewBuyerService(
	contacts crm.Store[contact.Contact],
	accounts crm.Store[contact.Account],
	deals crm.Store[deal.Deal],
	logger *zap.Logger,
) *BuyerService {
	return &BuyerService{
		contacts: contacts,
		accounts: accounts,
		deals:    deals,
		logger:   logger,
	}
}

func (s *BuyerService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

var buyerContactFields = append(append([]string{}, contact.ContactFields...), "Buyer_Account")

// GetBuyer loads the buyer contact and merges in its account.
func (s *BuyerService) GetBuyer(ctx context.Context, contactID string) (*buyer.BuyerProfile, error) {
	c, err := s.contacts.Get(ctx, contactID, buyerContactFields)
	if err != nil {
		s.log(ctx).Error("failed to get buyer contact", zap.String("contact_id", contactID), zap.Error(err))
		return nil, err
	}

	accountID := shared.RefID(c.BuyerAccount)
	if accountID == "" {
		return nil, fmt.Errorf("%w: contact %s has no buyer account", xerrors.ErrNotFound, contactID)
	}

	a, err := s.accounts.Get(ctx, accountID, contact.AccountFields)
	if err != nil {
		s.log(ctx).Error("failed to get buyer account", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}

	profile := buyer.NewBuyerProfile(c, a)
	return &profile, nil
}

func (s *BuyerService) UpdateBuyer(ctx context.Context, contactID string, req *buyer.UpdateBuyerRequest) error {
	contactRecord, accountRecord := req.ToRecords(contactID)

	if _, err := s.contacts.Update(ctx, contactID, contactRecord); err != nil {
		s.log(ctx).Error("failed to update buyer contact", zap.String("contact_id", contactID), zap.Error(err))
		return err
	}
	if _, err := s.accounts.Update(ctx, req.BuyerAccountID, accountRecord); err != nil {
		s.log(ctx).Error("failed to update buyer account", zap.String("account_id", req.BuyerAccountID), zap.Error(err))
		return err
	}
	return nil
}

// BuyerDeals lists the deals opened by the buyer account.
func (s *BuyerService) BuyerDeals(ctx context.Context, accountID string) ([]deal.Deal, error) {
	deals, err := s.deals.Search(ctx, crm.Equals("Account_Name", accountID), deal.BuyerFields)
	if err != nil {
		s.log(ctx).Error("failed to get buyer deals", zap.String("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return deals, nil
}
