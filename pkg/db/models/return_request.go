package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// ReturnRequest is a buyer's request to return a delivered order.
type ReturnRequest struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Reason      *string            `gorm:"column:reason;type:text"`
	Status      enums.ReturnStatus `gorm:"column:status;type:return_status;not null;default:'pending'"`
	RequestedAt time.Time          `gorm:"column:requested_at;not null"`
	ReviewedAt  *time.Time         `gorm:"column:reviewed_at"`
}
