package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// Order is the purchase aggregate. Monetary columns are immutable once
// created; only status and the shipping tracking fields change afterwards.
// RequestID is the client-supplied idempotency key; version is the
// optimistic concurrency token guarding status updates.
type Order struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID                 uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	RequestID              *string           `gorm:"column:request_id;type:text;uniqueIndex"`
	Latitude               float64           `gorm:"column:latitude;not null;default:0"`
	Longitude              float64           `gorm:"column:longitude;not null;default:0"`
	VoucherProductID       *uuid.UUID        `gorm:"column:voucher_product_id;type:uuid"`
	VoucherShippingID      *uuid.UUID        `gorm:"column:voucher_shipping_id;type:uuid"`
	DiscountProductAmount  decimal.Decimal   `gorm:"column:discount_product_amount;type:numeric(14,2);not null;default:0"`
	DiscountShippingAmount decimal.Decimal   `gorm:"column:discount_shipping_amount;type:numeric(14,2);not null;default:0"`
	SubTotal               decimal.Decimal   `gorm:"column:sub_total;type:numeric(14,2);not null"`
	ShippingFee            decimal.Decimal   `gorm:"column:shipping_fee;type:numeric(14,2);not null;default:0"`
	TotalAmount            decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status                 enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TrackingCode           *string           `gorm:"column:tracking_code;type:text"`
	ShippingProvider       *string           `gorm:"column:shipping_provider;type:text"`
	OrderDate              time.Time         `gorm:"column:order_date;not null"`
	Version                uint64            `gorm:"column:version;not null;default:1"`
	Items                  []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
