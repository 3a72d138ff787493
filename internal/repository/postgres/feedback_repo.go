// internal/repository/postgres/feedback_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/domain/deal"
	xerrors "marketplace-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const feedbackSchema = `
	CREATE TABLE IF NOT EXISTS deal_feedback (
		deal_id    TEXT PRIMARY KEY,
		vendor_id  TEXT NOT NULL,
		rating     SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comments   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_deal_feedback_vendor ON deal_feedback (vendor_id);
`

// FeedbackRepository is the ledger of rated deals. One row per deal keeps a
// buyer from rating the same deal twice.
type FeedbackRepository struct {
	db DBTX
}

func NewFeedbackRepository(db DBTX) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, feedbackSchema); err != nil {
		return fmt.Errorf("failed to create deal_feedback: %w", err)
	}
	return nil
}

// Reserve records the feedback, failing with ErrDuplicateEntry if the deal was already rated.
func (r *FeedbackRepository) Reserve(ctx context.Context, req *deal.FeedbackRequest) error {
	query := `
		INSERT INTO deal_feedback (deal_id, vendor_id, rating, comments)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (deal_id) DO NOTHING
		RETURNING created_at
	`

	var createdAt time.Time
	err := r.db.QueryRow(ctx, query, req.DealID, req.VendorID, req.Rating, req.Comments).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.NewClientError(xerrors.ErrDuplicateEntry, "feedback for deal %s already submitted", req.DealID)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve feedback: %w", err)
	}
	return nil
}

// Remove drops a reservation whose CRM writes did not go through.
func (r *FeedbackRepository) Remove(ctx context.Context, dealID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM deal_feedback WHERE deal_id = $1`, dealID); err != nil {
		return fmt.Errorf("failed to remove feedback: %w", err)
	}
	return nil
}
