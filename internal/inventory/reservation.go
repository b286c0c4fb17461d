package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/nguyendm/salemarket-backend/pkg/errors"
)

// ReservationRequest asks for qty units of an item inside a checkout.
type ReservationRequest struct {
	ItemID uuid.UUID
	Qty    int
}

// Reserve decrements stock for every request inside the supplied
// transaction. Reservation is all or nothing: the first line that cannot
// be satisfied aborts with a state-conflict error so the enclosing
// transaction rolls back every earlier decrement.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	repo := NewRepository(tx)
	for _, req := range requests {
		if req.ItemID == uuid.Nil {
			return apperrors.New(apperrors.CodeValidation, "item id is required")
		}
		if req.Qty <= 0 {
			return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid quantity %d for item %s", req.Qty, req.ItemID))
		}
		ok, err := repo.DecrementStock(ctx, req.ItemID, req.Qty)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "reserving stock")
		}
		if !ok {
			return apperrors.New(apperrors.CodeStateConflict, fmt.Sprintf("item %s has insufficient stock", req.ItemID)).
				WithDetails(map[string]any{"item_id": req.ItemID.String(), "requested": req.Qty})
		}
	}
	return nil
}

// Release returns stock for every request, used when a pending order is
// cancelled. Runs inside the caller's transaction.
func Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	repo := NewRepository(tx)
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		if err := repo.RestoreStock(ctx, req.ItemID, req.Qty); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "restoring stock")
		}
	}
	return nil
}
