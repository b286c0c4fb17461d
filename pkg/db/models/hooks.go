package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are generated client-side so inserts behave the same on
// Postgres and on the sqlite databases the package tests run against.
// Callers may still pre-assign an id; the hook only fills zero values.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *Shop) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *Item) BeforeCreate(*gorm.DB) error          { ensureID(&m.ID); return nil }
func (m *Voucher) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
func (m *CartItem) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Order) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *OrderItem) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }
func (m *OrderHistory) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *ReturnRequest) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Transaction) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *Notification) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *OutboxDLQ) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }
