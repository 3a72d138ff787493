// internal/service/deal/feedback.go
package deal

import (
	"context"
	"errors"
	"fmt"

	"marketplace-service/internal/domain/deal"
	"marketplace-service/internal/domain/shared"
	"marketplace-service/internal/domain/vendor"
	wstypes "marketplace-service/internal/domain/websocket"
	xerrors "marketplace-service/internal/pkg/errors"
	"marketplace-service/internal/pkg/lock"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SubmitFeedback stores the buyer's rating on the deal and folds it into the
// vendor's running average. Updates for one vendor are serialized by a lock
// so concurrent ratings are never lost.
func (s *DealService) SubmitFeedback(ctx context.Context, req *deal.FeedbackRequest) (err error) {
	if err := vendor.ValidateRating(req.Rating); err != nil {
		return err
	}

	current, err := s.deals.Get(ctx, req.DealID, deal.StateFields)
	if err != nil {
		s.log(ctx).Error("failed to get deal for feedback", zap.String("deal_id", req.DealID), zap.Error(err))
		return err
	}
	if owner := shared.RefID(current.Vendor); owner != "" && owner != req.VendorID {
		return xerrors.Invalid("deal %s does not belong to vendor %s", req.DealID, req.VendorID)
	}

	if s.ledger != nil {
		if err := s.ledger.Reserve(ctx, req); err != nil {
			return err
		}
		defer func() {
			if err == nil {
				return
			}
			// Let the buyer retry once the upstream recovers.
			if rerr := s.ledger.Remove(context.WithoutCancel(ctx), req.DealID); rerr != nil {
				s.log(ctx).Error("failed to release feedback reservation", zap.String("deal_id", req.DealID), zap.Error(rerr))
			}
		}()
	}

	held, unlock, err := s.locker.Lock(ctx, "vendor-rating:"+req.VendorID)
	if err != nil {
		return err
	}
	update, err := s.applyRating(held, req)
	if err != nil && errors.Is(context.Cause(held), lock.ErrLeaseLost) {
		err = fmt.Errorf("%w: %v", xerrors.ErrBusy, context.Cause(held))
	}
	unlock()
	if err != nil {
		return err
	}

	s.log(ctx).Info("feedback recorded",
		zap.String("deal_id", req.DealID),
		zap.String("vendor_id", req.VendorID),
		zap.Int("rating", req.Rating),
		zap.String("average_rating", update.Average),
	)
	s.publish(wstypes.EventTypeDealFeedback, &wstypes.DealEventData{
		DealID:         req.DealID,
		BuyerAccountID: shared.RefID(current.Account),
		VendorID:       req.VendorID,
		Stage:          string(current.Stage),
		Rating:         req.Rating,
	})
	return nil
}

// applyRating runs the read-modify-write on the vendor counters. Callers hold the vendor lock.
func (s *DealService) applyRating(ctx context.Context, req *deal.FeedbackRequest) (vendor.RatingUpdate, error) {
	if _, err := s.deals.Update(ctx, req.DealID, req.Record()); err != nil {
		s.log(ctx).Error("failed to store deal feedback", zap.String("deal_id", req.DealID), zap.Error(err))
		return vendor.RatingUpdate{}, err
	}

	v, err := s.vendors.Get(ctx, req.VendorID, vendor.RatingFields)
	if err != nil {
		s.log(ctx).Error("failed to get vendor rating", zap.String("vendor_id", req.VendorID), zap.Error(err))
		return vendor.RatingUpdate{}, err
	}

	update, err := vendor.AccumulateRating(v.RatingCount.Int64(), v.RatingTotalPoints.Or(decimal.Zero), req.Rating)
	if err != nil {
		return vendor.RatingUpdate{}, err
	}

	if _, err := s.vendors.Update(ctx, req.VendorID, update.Record(req.VendorID)); err != nil {
		s.log(ctx).Error("failed to update vendor rating", zap.String("vendor_id", req.VendorID), zap.Error(err))
		return vendor.RatingUpdate{}, fmt.Errorf("update vendor %s rating: %w", req.VendorID, err)
	}
	return update, nil
}
