package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// OrderCreatedEvent signals that checkout committed a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	ShopIDs     []uuid.UUID     `json:"shop_ids"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
}

// OrderStatusChangedEvent is emitted on every audited status transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	BuyerID    uuid.UUID         `json:"buyer_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedBy  uuid.UUID         `json:"changed_by"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// OrderCancelledEvent is emitted when a pending order is cancelled and its
// stock and voucher holds are released.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	CancelledAt time.Time `json:"cancelled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// ReturnRequestedEvent is emitted when a buyer files a return for a
// delivered order.
type ReturnRequestedEvent struct {
	ReturnRequestID uuid.UUID `json:"return_request_id"`
	OrderID         uuid.UUID `json:"order_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	Reason          string    `json:"reason,omitempty"`
	RequestedAt     time.Time `json:"requested_at"`
}

// PayoutSettledEvent reports seller credits written for a completed order.
type PayoutSettledEvent struct {
	OrderID   uuid.UUID      `json:"order_id"`
	Payouts   []SellerPayout `json:"payouts"`
	SettledAt time.Time      `json:"settled_at"`
}

// SellerPayout is one shop's share of a settled order.
type SellerPayout struct {
	ShopID        uuid.UUID       `json:"shop_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID uuid.UUID       `json:"transaction_id"`
}
