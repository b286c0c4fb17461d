package orders

import (
	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

// CreateOrderInput carries everything checkout needs to assemble an
// order from the buyer's cart.
type CreateOrderInput struct {
	BuyerID           uuid.UUID
	RequestID         *string
	ItemIDs           []uuid.UUID
	VoucherProductID  *uuid.UUID
	VoucherShippingID *uuid.UUID
	ShipToLatitude    *float64
	ShipToLongitude   *float64
}

// UpdateStatusInput carries a requested status transition.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Note    *string
	Actor   types.AuthContext
}

// CancelOrderInput carries a buyer's cancellation request.
type CancelOrderInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Reason  string
}

// ReturnRequestInput carries a buyer's return request for a delivered
// order.
type ReturnRequestInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Reason  *string
}
