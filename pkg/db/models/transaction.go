package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// Transaction records one immutable balance mutation (buyer debit or
// seller credit); one row per mutation.
type Transaction struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Amount         decimal.Decimal         `gorm:"column:amount;type:numeric(14,2);not null"`
	Type           enums.TransactionType   `gorm:"column:type;type:transaction_type;not null"`
	RelatedOrderID *uuid.UUID              `gorm:"column:related_order_id;type:uuid;index"`
	Status         enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null"`
	Note           *string                 `gorm:"column:note;type:text"`
	Timestamp      time.Time               `gorm:"column:timestamp;not null"`
}
