package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
)

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemA := seedItem(t, db, 5)
	itemB := seedItem(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []ReservationRequest{
			{ItemID: itemA, Qty: 3},
			{ItemID: itemB, Qty: 1},
		})
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if got := loadItem(t, db, itemA); got.Stock != 2 {
		t.Fatalf("unexpected stock for item a: %d", got.Stock)
	}
	if got := loadItem(t, db, itemB); got.Stock != 0 {
		t.Fatalf("unexpected stock for item b: %d", got.Stock)
	}
}

func TestReserveRollsBackWhole(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	itemA := seedItem(t, db, 5)
	itemB := seedItem(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []ReservationRequest{
			{ItemID: itemA, Qty: 3},
			{ItemID: itemB, Qty: 2},
		})
	})
	if err == nil {
		t.Fatal("expected reservation to fail")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	// first decrement must have been rolled back with the transaction
	if got := loadItem(t, db, itemA); got.Stock != 5 {
		t.Fatalf("expected item a stock restored, got %d", got.Stock)
	}
	if got := loadItem(t, db, itemB); got.Stock != 1 {
		t.Fatalf("expected item b stock untouched, got %d", got.Stock)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	item := seedItem(t, db, 5)

	err := Reserve(ctx, db, []ReservationRequest{{ItemID: item, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	item := seedItem(t, db, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Release(ctx, tx, []ReservationRequest{{ItemID: item, Qty: 3}})
	})
	if err != nil {
		t.Fatalf("release transaction: %v", err)
	}
	if got := loadItem(t, db, item); got.Stock != 5 {
		t.Fatalf("unexpected stock after release: %d", got.Stock)
	}
}

func TestDecrementBumpsVersion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	item := seedItem(t, db, 4)
	before := loadItem(t, db, item).Version

	ok, err := NewRepository(db).DecrementStock(ctx, item, 1)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to apply")
	}
	if after := loadItem(t, db, item).Version; after != before+1 {
		t.Fatalf("expected version bump, before=%d after=%d", before, after)
	}
}

func seedItem(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	item := models.Item{
		ID:     uuid.New(),
		ShopID: uuid.New(),
		Name:   "seeded",
		Price:  decimal.NewFromInt(10),
		Stock:  stock,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item.ID
}

func loadItem(t *testing.T, db *gorm.DB, id uuid.UUID) models.Item {
	t.Helper()
	var item models.Item
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}); err != nil {
		t.Fatalf("migrate items: %v", err)
	}
	return db
}
