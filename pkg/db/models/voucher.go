package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// Voucher is a product- or shipping-discount coupon. IsActive is advisory
// and re-checked at use time together with quantity and end date; version
// is the optimistic concurrency token.
type Voucher struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code              string               `gorm:"column:code;type:text;not null;uniqueIndex"`
	ShopID            *uuid.UUID           `gorm:"column:shop_id;type:uuid"`
	ItemID            *uuid.UUID           `gorm:"column:item_id;type:uuid"`
	TargetType        enums.VoucherTarget  `gorm:"column:target_type;type:voucher_target;not null"`
	MethodType        enums.DiscountMethod `gorm:"column:method_type;type:discount_method;not null"`
	DiscountValue     decimal.Decimal      `gorm:"column:discount_value;type:numeric(14,2);not null"`
	Quantity          int                  `gorm:"column:quantity;not null;default:0"`
	MinSpend          *decimal.Decimal     `gorm:"column:min_spend;type:numeric(14,2)"`
	MaxDiscountAmount *decimal.Decimal     `gorm:"column:max_discount_amount;type:numeric(14,2)"`
	StartDate         *time.Time           `gorm:"column:start_date"`
	EndDate           *time.Time           `gorm:"column:end_date"`
	IsActive          bool                 `gorm:"column:is_active;not null;default:true"`
	Version           uint64               `gorm:"column:version;not null;default:1"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
