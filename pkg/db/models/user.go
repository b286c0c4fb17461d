package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/nguyendm/salemarket-backend/pkg/db/types"
)

// User represents the canonical identity entity. Balance is the internal
// wallet credited by payout settlement.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Username  string           `gorm:"column:username;type:text;not null;uniqueIndex"`
	Balance   decimal.Decimal  `gorm:"column:balance;type:numeric(14,2);not null;default:0"`
	Latitude  float64          `gorm:"column:latitude;not null;default:0"`
	Longitude float64          `gorm:"column:longitude;not null;default:0"`
	Roles     dbtypes.RoleList `gorm:"type:text[];column:roles;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
