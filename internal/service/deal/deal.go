// internal/service/deal/deal.go
package deal

import (
	"context"

	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/domain/shared"
	"marketplace-service/internal/domain/vendor"
	wstypes "marketplace-service/internal/domain/websocket"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/logger"
	"marketplace-service/internal/pkg/lock"
	"marketplace-service/internal/repository/crm"

	"go.uber.org/zap"
)

// EventPublisher pushes deal events to connected buyers and sellers.
type EventPublisher interface {
	PublishDealEvent(eventType wstypes.EventType, data *wstypes.DealEventData)
}

// FeedbackLedger remembers which deals were already rated.
type FeedbackLedger interface {
	Reserve(ctx context.Context, req *deal.FeedbackRequest) error
	Remove(ctx context.Context, dealID string) error
}

type DealService struct {
	deals   crm.Store[deal.Deal]
	vendors crm.Store[vendor.Vendor]
	locker  lock.Locker
	ledger  FeedbackLedger
	events  EventPublisher
	logger  *zap.Logger
}

type Option func(*DealService)

func WithFeedbackLedger(l FeedbackLedger) Option {
	return func(s *DealService) {
		s.ledger = l
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *DealService) {
		s.events = p
	}
}

func NewDealService(
	deals crm.Store[deal.Deal],
	vendors crm.Store[vendor.Vendor],
	locker lock.Locker,
	logger *zap.Logger,
	opts ...Option,
) *DealService {
	s := &DealService{
		deals:   deals,
		vendors: vendors,
		locker:  locker,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker()
	}
	return s
}

func (s *DealService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

// CreateDeal opens a deal in the initial stage and returns the CRM result code.
func (s *DealService) CreateDeal(ctx context.Context, req *deal.CreateDealRequest) (string, error) {
	res, err := s.deals.Create(ctx, req.ToRecord())
	if err != nil {
		s.log(ctx).Error("failed to create deal",
			zap.String("buyer_account_id", req.BuyerAccountID),
			zap.String("vendor_id", req.SellerID),
			zap.Error(err),
		)
		return "", err
	}

	s.log(ctx).Info("deal created", zap.String("deal_id", res.Details.ID), zap.String("vendor_id", req.SellerID))
	s.publish(wstypes.EventTypeDealCreated, &wstypes.DealEventData{
		DealID:         res.Details.ID,
		BuyerAccountID: req.BuyerAccountID,
		VendorID:       req.SellerID,
		Stage:          string(deal.InitialStage),
	})
	return res.Code, nil
}

// UpdateDeal moves the deal to a new stage or sets its quantity. The current
// stage is read first; closed deals and illegal edges are rejected before any write.
func (s *DealService) UpdateDeal(ctx context.Context, id string, req *deal.UpdateDealRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	held, unlock, err := s.locker.Lock(ctx, "deal:"+id)
	if err != nil {
		return err
	}
	defer unlock()
	ctx = held

	current, err := s.deals.Get(ctx, id, deal.StateFields)
	if err != nil {
		s.log(ctx).Error("failed to get deal", zap.String("deal_id", id), zap.Error(err))
		return err
	}
	if !current.Stage.CanUpdate() {
		return xerrors.NewClientError(xerrors.ErrInvalidTransition, "deal %s is %q and can no longer change", id, current.Stage)
	}

	record := deal.Record{ID: id}
	event := &wstypes.DealEventData{
		DealID:         id,
		BuyerAccountID: shared.RefID(current.Account),
		VendorID:       shared.RefID(current.Vendor),
		Stage:          string(current.Stage),
	}

	if req.Stage != nil {
		target, err := deal.ParseStage(*req.Stage)
		if err != nil {
			return err
		}
		if err := deal.ValidateTransition(current.Stage, target); err != nil {
			return err
		}
		record.Stage = target
		event.PreviousStage = string(current.Stage)
		event.Stage = string(target)
	} else {
		record.Quantity = *req.Quantity
		event.Quantity = req.Quantity.String()
	}

	if _, err := s.deals.Update(ctx, id, record); err != nil {
		s.log(ctx).Error("failed to update deal", zap.String("deal_id", id), zap.Error(err))
		return err
	}

	if record.Stage != "" {
		s.log(ctx).Info("deal stage changed",
			zap.String("deal_id", id),
			zap.String("from", event.PreviousStage),
			zap.String("to", event.Stage),
		)
		s.publish(wstypes.EventTypeDealStageChanged, event)
	}
	return nil
}

// SellerDeals lists the deals addressed to the vendor.
func (s *DealService) SellerDeals(ctx context.Context, vendorID string) ([]deal.Deal, error) {
	deals, err := s.deals.Search(ctx, crm.Equals("Vendor_Name", vendorID), deal.SellerFields)
	if err != nil {
		s.log(ctx).Error("failed to get seller deals", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil, err
	}
	return deals, nil
}

func (s *DealService) publish(eventType wstypes.EventType, data *wstypes.DealEventData) {
	if s.events == nil {
		return
	}
	s.events.PublishDealEvent(eventType, data)
}
