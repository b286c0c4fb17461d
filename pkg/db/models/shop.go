package models

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a seller's storefront. Coordinates feed the carrier fee quote.
type Shop struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;type:text;not null"`
	Latitude        float64   `gorm:"column:latitude;not null;default:0"`
	Longitude       float64   `gorm:"column:longitude;not null;default:0"`
	PreparationTime int       `gorm:"column:preparation_time;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
