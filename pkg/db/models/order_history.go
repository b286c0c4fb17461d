package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// OrderHistory is the append-only audit trail; one row per status
// transition, including the creation row. Chronological reads order by
// created_date ascending.
type OrderHistory struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Note        *string           `gorm:"column:note;type:text"`
	CreatedDate time.Time         `gorm:"column:created_date;not null"`
}
