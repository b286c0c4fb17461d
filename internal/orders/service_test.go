package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nguyendm/salemarket-backend/internal/cart"
	"github.com/nguyendm/salemarket-backend/internal/shipping"
	"github.com/nguyendm/salemarket-backend/internal/shops"
	"github.com/nguyendm/salemarket-backend/internal/users"
	"github.com/nguyendm/salemarket-backend/internal/vouchers"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/outbox"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r *sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

type stubOrderRepo struct {
	created    *models.Order
	histories  []models.OrderHistory
	returns    []*models.ReturnRequest
	tracking   []string
	guardOK    bool
	sellerOwns bool

	findByIDFn        func(id uuid.UUID) (*models.Order, error)
	findByRequestIDFn func(requestID string) (*models.Order, error)
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{guardOK: true}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	s.created = order
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) FindByRequestID(ctx context.Context, requestID string) (*models.Order, error) {
	if s.findByRequestIDFn != nil {
		return s.findByRequestIDFn(requestID)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, version uint64, status enums.OrderStatus) (bool, error) {
	return s.guardOK, nil
}

func (s *stubOrderRepo) UpdateTracking(ctx context.Context, orderID uuid.UUID, trackingCode, provider string) error {
	s.tracking = append(s.tracking, trackingCode)
	return nil
}

func (s *stubOrderRepo) AppendHistory(ctx context.Context, entry *models.OrderHistory) error {
	s.histories = append(s.histories, *entry)
	return nil
}

func (s *stubOrderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	return nil, nil
}

func (s *stubOrderRepo) SellerOwnsLine(ctx context.Context, orderID, sellerID uuid.UUID) (bool, error) {
	return s.sellerOwns, nil
}

func (s *stubOrderRepo) CreateReturnRequest(ctx context.Context, request *models.ReturnRequest) error {
	s.returns = append(s.returns, request)
	return nil
}

func (s *stubOrderRepo) ListCompletedUnsettled(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

type stubCartRepo struct {
	lines   []models.CartItem
	deleted []uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.lines, nil
}

func (s *stubCartRepo) FindLine(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	return nil, nil
}

func (s *stubCartRepo) Upsert(ctx context.Context, line *models.CartItem) error { return nil }

func (s *stubCartRepo) UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return nil
}

func (s *stubCartRepo) Delete(ctx context.Context, lineID uuid.UUID) error {
	s.deleted = append(s.deleted, lineID)
	return nil
}

func (s *stubCartRepo) ClearForUser(ctx context.Context, userID uuid.UUID) error { return nil }

type stubVoucherRepo struct {
	byID      map[uuid.UUID]*models.Voucher
	consumeOK bool
	consumed  []uuid.UUID
	restored  []uuid.UUID
}

func newStubVoucherRepo() *stubVoucherRepo {
	return &stubVoucherRepo{byID: map[uuid.UUID]*models.Voucher{}, consumeOK: true}
}

func (s *stubVoucherRepo) WithTx(tx *gorm.DB) vouchers.Repository { return s }

func (s *stubVoucherRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	return s.byID[id], nil
}

func (s *stubVoucherRepo) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	return nil, nil
}

func (s *stubVoucherRepo) Consume(ctx context.Context, id uuid.UUID, version uint64) (bool, error) {
	if !s.consumeOK {
		return false, nil
	}
	s.consumed = append(s.consumed, id)
	return true, nil
}

func (s *stubVoucherRepo) Restore(ctx context.Context, id uuid.UUID) error {
	s.restored = append(s.restored, id)
	return nil
}

type stubShopRepo struct {
	owners map[uuid.UUID]uuid.UUID
}

func (s *stubShopRepo) WithTx(tx *gorm.DB) shops.Repository { return s }

func (s *stubShopRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return &models.Shop{ID: id, UserID: s.owners[id]}, nil
}

func (s *stubShopRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shop, error) {
	out := make([]models.Shop, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Shop{ID: id, UserID: s.owners[id], Name: "shop"})
	}
	return out, nil
}

type stubUserRepo struct {
	user *models.User
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return nil
}

type stubCarrier struct {
	fee          decimal.Decimal
	feeErr       error
	feeCalls     int
	trackingCode string
	createErr    error
	createCalls  int
}

func (s *stubCarrier) CalculateFee(ctx context.Context, shop *models.Shop, buyer *models.User) (decimal.Decimal, error) {
	s.feeCalls++
	if s.feeErr != nil {
		return decimal.Zero, s.feeErr
	}
	return s.fee, nil
}

func (s *stubCarrier) CreateShippingOrder(ctx context.Context, order *models.Order, buyer *models.User, lines []shipping.ShipmentLine) (string, error) {
	s.createCalls++
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.trackingCode, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type checkoutFixture struct {
	svc      Service
	db       *gorm.DB
	repo     *stubOrderRepo
	carts    *stubCartRepo
	vouchers *stubVoucherRepo
	shops    *stubShopRepo
	users    *stubUserRepo
	carrier  *stubCarrier
	outbox   *stubOutbox
	buyer    *models.User
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db := newTestDB(t)

	f := &checkoutFixture{
		db:       db,
		repo:     newStubOrderRepo(),
		carts:    &stubCartRepo{},
		vouchers: newStubVoucherRepo(),
		shops:    &stubShopRepo{owners: map[uuid.UUID]uuid.UUID{}},
		users:    &stubUserRepo{},
		carrier:  &stubCarrier{fee: decimal.NewFromInt(30), trackingCode: "TRACK1"},
		outbox:   &stubOutbox{},
	}
	f.buyer = &models.User{ID: uuid.New(), Username: "buyer"}
	f.users.user = f.buyer

	svc, err := NewService(
		f.repo,
		&sqliteTxRunner{db: db},
		f.outbox,
		f.carrier,
		f.carts,
		f.vouchers,
		f.shops,
		f.users,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

// seedCartLine persists an item with the given stock and registers a
// matching cart line for the fixture buyer.
func (f *checkoutFixture) seedCartLine(t *testing.T, price int64, stock, qty int) models.CartItem {
	t.Helper()
	item := models.Item{
		ID:     uuid.New(),
		ShopID: uuid.New(),
		Name:   "item",
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
	}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	f.shops.owners[item.ShopID] = uuid.New()
	line := models.CartItem{
		ID:       uuid.New(),
		UserID:   f.buyer.ID,
		ItemID:   item.ID,
		Quantity: qty,
		Item:     &item,
	}
	f.carts.lines = append(f.carts.lines, line)
	return line
}

func (f *checkoutFixture) itemStock(t *testing.T, itemID uuid.UUID) int {
	t.Helper()
	var item models.Item
	if err := f.db.First(&item, "id = ?", itemID).Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	return item.Stock
}

func TestCreateOrderComputesTotals(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 5, 2) // subtotal 100

	voucher := &models.Voucher{
		ID:            uuid.New(),
		Code:          "SAVE10",
		TargetType:    enums.VoucherTargetProduct,
		MethodType:    enums.DiscountMethodPercentage,
		DiscountValue: decimal.NewFromInt(10),
		Quantity:      3,
		IsActive:      true,
		Version:       1,
	}
	f.vouchers.byID[voucher.ID] = voucher

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:          f.buyer.ID,
		ItemIDs:          []uuid.UUID{line.ItemID},
		VoucherProductID: &voucher.ID,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// total = max(0, 100 - 10) + 30 - 0
	if !order.TotalAmount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected total: %s", order.TotalAmount)
	}
	if !order.SubTotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected subtotal: %s", order.SubTotal)
	}
	if !order.DiscountProductAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected product discount: %s", order.DiscountProductAmount)
	}
	if got := f.itemStock(t, line.ItemID); got != 3 {
		t.Fatalf("expected stock reserved, got %d", got)
	}
	if len(f.vouchers.consumed) != 1 || f.vouchers.consumed[0] != voucher.ID {
		t.Fatalf("voucher not consumed: %v", f.vouchers.consumed)
	}
	if f.repo.created == nil || len(f.repo.created.Items) != 1 {
		t.Fatalf("order not persisted with items: %+v", f.repo.created)
	}
	if len(f.repo.histories) != 1 || f.repo.histories[0].Status != enums.OrderStatusPending {
		t.Fatalf("missing creation history row: %+v", f.repo.histories)
	}
	if len(f.carts.deleted) != 1 || f.carts.deleted[0] != line.ID {
		t.Fatalf("cart line not consumed: %v", f.carts.deleted)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order created event, got %+v", f.outbox.events)
	}
	if order.TrackingCode == nil || *order.TrackingCode != "TRACK1" {
		t.Fatalf("expected tracking code persisted, got %v", order.TrackingCode)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 1, 2)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID: f.buyer.ID,
		ItemIDs: []uuid.UUID{line.ItemID},
	})
	if err == nil {
		t.Fatal("expected stock failure")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.itemStock(t, line.ItemID); got != 1 {
		t.Fatalf("expected stock untouched, got %d", got)
	}
	if f.repo.created != nil {
		t.Fatal("no order should be persisted")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no event should be emitted")
	}
}

func TestCreateOrderFeeFailureAborts(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 5, 1)
	f.carrier.feeErr = errors.New("carrier unreachable")

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID: f.buyer.ID,
		ItemIDs: []uuid.UUID{line.ItemID},
	})
	if err == nil {
		t.Fatal("expected fee failure to abort")
	}
	if got := f.itemStock(t, line.ItemID); got != 5 {
		t.Fatalf("expected no reservation, got stock %d", got)
	}
	if f.repo.created != nil {
		t.Fatal("no order should be persisted")
	}
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 5, 1)

	requestID := "req-123"
	existing := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, RequestID: &requestID}
	f.repo.findByRequestIDFn = func(got string) (*models.Order, error) {
		if got == requestID {
			return existing, nil
		}
		return nil, nil
	}

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:   f.buyer.ID,
		RequestID: &requestID,
		ItemIDs:   []uuid.UUID{line.ItemID},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != existing.ID {
		t.Fatalf("expected existing order returned, got %s", order.ID)
	}
	if f.carrier.feeCalls != 0 {
		t.Fatal("replay must not quote the carrier again")
	}
	if got := f.itemStock(t, line.ItemID); got != 5 {
		t.Fatalf("replay must not touch stock, got %d", got)
	}
}

func TestCreateOrderVoucherConcurrency(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 5, 1)

	voucher := &models.Voucher{
		ID:            uuid.New(),
		Code:          "RACE",
		TargetType:    enums.VoucherTargetProduct,
		MethodType:    enums.DiscountMethodFixedAmount,
		DiscountValue: decimal.NewFromInt(5),
		Quantity:      1,
		IsActive:      true,
		Version:       7,
	}
	f.vouchers.byID[voucher.ID] = voucher
	f.vouchers.consumeOK = false

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID:          f.buyer.ID,
		ItemIDs:          []uuid.UUID{line.ItemID},
		VoucherProductID: &voucher.ID,
	})
	if err == nil {
		t.Fatal("expected concurrency conflict")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConcurrency {
		t.Fatalf("unexpected error: %v", err)
	}
	// the stock decrement from earlier in the transaction must roll back
	if got := f.itemStock(t, line.ItemID); got != 5 {
		t.Fatalf("expected rollback, got stock %d", got)
	}
}

func TestCreateOrderShipmentFailureTolerated(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 5, 1)
	f.carrier.createErr = errors.New("carrier rejected shipment")

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID: f.buyer.ID,
		ItemIDs: []uuid.UUID{line.ItemID},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.TrackingCode != nil {
		t.Fatalf("expected empty tracking code, got %v", *order.TrackingCode)
	}
	if len(f.repo.tracking) != 0 {
		t.Fatalf("tracking must not be persisted on failure: %v", f.repo.tracking)
	}
}

func sellerActor() types.AuthContext {
	return types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleSeller}}
}

func TestUpdateOrderStatusSellerTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{"pending to processing", enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{"pending to cancelled", enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{"processing to in transit", enums.OrderStatusProcessing, enums.OrderStatusInTransit, true},
		{"pending to delivered", enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{"processing to cancelled", enums.OrderStatusProcessing, enums.OrderStatusCancelled, false},
		{"delivered to completed", enums.OrderStatusDelivered, enums.OrderStatusCompleted, false},
		{"completed to pending", enums.OrderStatusCompleted, enums.OrderStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			f.repo.sellerOwns = true
			order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: tc.from, Version: 1}
			f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

			_, err := f.svc.UpdateOrderStatus(context.Background(), UpdateStatusInput{
				OrderID: order.ID,
				Status:  tc.to,
				Actor:   sellerActor(),
			})
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected transition to succeed: %v", err)
				}
				if len(f.repo.histories) != 1 || f.repo.histories[0].Status != tc.to {
					t.Fatalf("missing history row: %+v", f.repo.histories)
				}
				if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderStatusChanged {
					t.Fatalf("missing status changed event: %+v", f.outbox.events)
				}
				return
			}
			if err == nil {
				t.Fatal("expected transition to be rejected")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.repo.histories) != 0 {
				t.Fatal("rejected transition must not append history")
			}
		})
	}
}

func TestUpdateOrderStatusAdminBypass(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: enums.OrderStatusDelivered, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	admin := types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleAdmin}}
	updated, err := f.svc.UpdateOrderStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusCompleted,
		Actor:   admin,
	})
	if err != nil {
		t.Fatalf("admin transition: %v", err)
	}
	if updated.Status != enums.OrderStatusCompleted {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
}

func TestUpdateOrderStatusAuthorization(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: enums.OrderStatusPending, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	// a buyer-only actor cannot drive the status machine
	buyerOnly := types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleBuyer}}
	_, err := f.svc.UpdateOrderStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
		Actor:   buyerOnly,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	// a seller without a line item on the order is also rejected
	f.repo.sellerOwns = false
	_, err = f.svc.UpdateOrderStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
		Actor:   sellerActor(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateOrderStatusConcurrencyConflict(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.repo.sellerOwns = true
	f.repo.guardOK = false
	order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: enums.OrderStatusPending, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	_, err := f.svc.UpdateOrderStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
		Actor:   sellerActor(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConcurrency {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelOrderRestoresStockAndVouchers(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	line := f.seedCartLine(t, 50, 8, 2)
	voucherID := uuid.New()

	order := &models.Order{
		ID:               uuid.New(),
		UserID:           f.buyer.ID,
		Status:           enums.OrderStatusPending,
		VoucherProductID: &voucherID,
		Version:          1,
		Items: []models.OrderItem{
			{ID: uuid.New(), ItemID: line.ItemID, ShopID: line.Item.ShopID, Quantity: 2, Price: decimal.NewFromInt(50)},
		},
	}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	if err := f.svc.CancelOrder(context.Background(), CancelOrderInput{
		OrderID: order.ID,
		BuyerID: f.buyer.ID,
	}); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	if got := f.itemStock(t, line.ItemID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
	if len(f.vouchers.restored) != 1 || f.vouchers.restored[0] != voucherID {
		t.Fatalf("voucher not restored: %v", f.vouchers.restored)
	}
	if len(f.repo.histories) != 1 || f.repo.histories[0].Status != enums.OrderStatusCancelled {
		t.Fatalf("missing cancellation history: %+v", f.repo.histories)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("missing cancelled event: %+v", f.outbox.events)
	}
}

func TestCancelOrderOnlyPending(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: enums.OrderStatusDelivered, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	err := f.svc.CancelOrder(context.Background(), CancelOrderInput{OrderID: order.ID, BuyerID: f.buyer.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelOrderWrongBuyer(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusPending, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	err := f.svc.CancelOrder(context.Background(), CancelOrderInput{OrderID: order.ID, BuyerID: f.buyer.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestReturnOnlyDelivered(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	reason := "damaged on arrival"

	order := &models.Order{ID: uuid.New(), UserID: f.buyer.ID, Status: enums.OrderStatusDelivered, Version: 1}
	f.repo.findByIDFn = func(id uuid.UUID) (*models.Order, error) { return order, nil }

	request, err := f.svc.RequestReturn(context.Background(), ReturnRequestInput{
		OrderID: order.ID,
		BuyerID: f.buyer.ID,
		Reason:  &reason,
	})
	if err != nil {
		t.Fatalf("request return: %v", err)
	}
	if request.Status != enums.ReturnStatusPending {
		t.Fatalf("unexpected return status: %s", request.Status)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventReturnRequested {
		t.Fatalf("missing return requested event: %+v", f.outbox.events)
	}

	// any other order state is rejected
	order.Status = enums.OrderStatusInTransit
	_, err = f.svc.RequestReturn(context.Background(), ReturnRequestInput{
		OrderID: order.ID,
		BuyerID: f.buyer.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetOrderHistoryReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	entries, err := f.svc.GetOrderHistory(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get order history: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty slice, got %v", entries)
	}
}

func TestCreateOrderMultiShopFees(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	lineA := f.seedCartLine(t, 10, 5, 1)
	lineB := f.seedCartLine(t, 20, 5, 1)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID: f.buyer.ID,
		ItemIDs: []uuid.UUID{lineA.ItemID, lineB.ItemID},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if f.carrier.feeCalls != 2 {
		t.Fatalf("expected one fee quote per shop, got %d", f.carrier.feeCalls)
	}
	// 30 per shop, two shops
	if !order.ShippingFee.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected shipping fee: %s", order.ShippingFee)
	}
}

func TestCreateOrderRejectsForeignItem(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.seedCartLine(t, 10, 5, 1)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		BuyerID: f.buyer.ID,
		ItemIDs: []uuid.UUID{uuid.New()},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
