package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nguyendm/salemarket-backend/internal/ledger"
	"github.com/nguyendm/salemarket-backend/internal/shops"
	"github.com/nguyendm/salemarket-backend/internal/users"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	"github.com/nguyendm/salemarket-backend/pkg/outbox"
	"github.com/nguyendm/salemarket-backend/pkg/outbox/payloads"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrderFinder struct {
	order *models.Order
}

func (s *stubOrderFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubShopRepo struct {
	shops []models.Shop
}

func (s *stubShopRepo) WithTx(tx *gorm.DB) shops.Repository { return s }

func (s *stubShopRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShopRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Shop, error) {
	return s.shops, nil
}

type stubUserRepo struct {
	credits map[uuid.UUID]decimal.Decimal
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{credits: map[uuid.UUID]decimal.Decimal{}}
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) CreditBalance(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	existing, ok := s.credits[id]
	if !ok {
		existing = decimal.Zero
	}
	s.credits[id] = existing.Add(amount)
	return nil
}

type stubLedgerRepo struct {
	settled          bool
	settledOnRecheck bool
	existsCalls      int
	created          []models.Transaction
}

func (s *stubLedgerRepo) WithTx(tx *gorm.DB) ledger.Repository { return s }

func (s *stubLedgerRepo) Create(ctx context.Context, txn *models.Transaction) error {
	s.created = append(s.created, *txn)
	return nil
}

func (s *stubLedgerRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubLedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubLedgerRepo) ExistsForOrder(ctx context.Context, orderID uuid.UUID, txnType enums.TransactionType) (bool, error) {
	s.existsCalls++
	if s.existsCalls > 1 {
		return s.settled || s.settledOnRecheck, nil
	}
	return s.settled, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type payoutFixture struct {
	svc    *Service
	orders *stubOrderFinder
	shops  *stubShopRepo
	users  *stubUserRepo
	ledger *stubLedgerRepo
	outbox *stubOutbox
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()
	f := &payoutFixture{
		orders: &stubOrderFinder{},
		shops:  &stubShopRepo{},
		users:  newStubUserRepo(),
		ledger: &stubLedgerRepo{},
		outbox: &stubOutbox{},
	}
	svc, err := NewService(f.orders, f.shops, f.users, f.ledger, fakeTxRunner{}, f.outbox, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func completedOrder(shopA, shopB uuid.UUID) *models.Order {
	orderID := uuid.New()
	return &models.Order{
		ID:     orderID,
		UserID: uuid.New(),
		Status: enums.OrderStatusCompleted,
		Items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, ShopID: shopA, ItemID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(40)},
			{ID: uuid.New(), OrderID: orderID, ShopID: shopA, ItemID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(20)},
			{ID: uuid.New(), OrderID: orderID, ShopID: shopB, ItemID: uuid.New(), Quantity: 3, Price: decimal.NewFromInt(10)},
		},
	}
}

func TestSettleCreditsEachShop(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture(t)
	shopA, shopB := uuid.New(), uuid.New()
	sellerA, sellerB := uuid.New(), uuid.New()
	f.orders.order = completedOrder(shopA, shopB)
	f.shops.shops = []models.Shop{
		{ID: shopA, UserID: sellerA},
		{ID: shopB, UserID: sellerB},
	}

	ok, err := f.svc.Settle(context.Background(), f.orders.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !ok {
		t.Fatal("expected payout to settle")
	}

	// shop A: 2*40 + 1*20 = 100; shop B: 3*10 = 30
	if got := f.users.credits[sellerA]; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected credit for seller a: %s", got)
	}
	if got := f.users.credits[sellerB]; !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected credit for seller b: %s", got)
	}
	if len(f.ledger.created) != 2 {
		t.Fatalf("expected one transaction per shop, got %d", len(f.ledger.created))
	}
	for _, txn := range f.ledger.created {
		if txn.Type != enums.TransactionTypeOrderPayment || txn.Status != enums.TransactionStatusSuccess {
			t.Fatalf("unexpected transaction: %+v", txn)
		}
		if txn.RelatedOrderID == nil || *txn.RelatedOrderID != f.orders.order.ID {
			t.Fatalf("transaction missing order link: %+v", txn)
		}
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventPayoutSettled {
		t.Fatalf("missing payout settled event: %+v", f.outbox.events)
	}
	payload, ok := f.outbox.events[0].Data.(payloads.PayoutSettledEvent)
	if !ok || len(payload.Payouts) != 2 {
		t.Fatalf("unexpected event payload: %+v", f.outbox.events[0].Data)
	}
}

func TestSettleSkipsNonCompletedOrder(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture(t)
	f.orders.order = completedOrder(uuid.New(), uuid.New())
	f.orders.order.Status = enums.OrderStatusDelivered

	ok, err := f.svc.Settle(context.Background(), f.orders.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected no payout for non-completed order")
	}
	if len(f.users.credits) != 0 || len(f.ledger.created) != 0 {
		t.Fatal("no balance mutation expected")
	}
}

func TestSettleSkipsMissingOrder(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture(t)
	ok, err := f.svc.Settle(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected no payout for missing order")
	}
}

func TestSettleIdempotent(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture(t)
	f.orders.order = completedOrder(uuid.New(), uuid.New())
	f.ledger.settled = true

	ok, err := f.svc.Settle(context.Background(), f.orders.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected already-settled order to be skipped")
	}
	if len(f.users.credits) != 0 {
		t.Fatal("no balance mutation expected")
	}
}

func TestSettleSkipsWhenRecheckFindsPayout(t *testing.T) {
	t.Parallel()

	// A concurrent settlement can land between the fast-path check and
	// the transaction; the locked re-check must back out cleanly.
	f := newPayoutFixture(t)
	shopA, shopB := uuid.New(), uuid.New()
	f.orders.order = completedOrder(shopA, shopB)
	f.shops.shops = []models.Shop{
		{ID: shopA, UserID: uuid.New()},
		{ID: shopB, UserID: uuid.New()},
	}
	f.ledger.settledOnRecheck = true

	ok, err := f.svc.Settle(context.Background(), f.orders.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected concurrent settlement to be skipped")
	}
	if len(f.ledger.created) != 0 {
		t.Fatalf("no transactions expected, got %d", len(f.ledger.created))
	}
	if len(f.users.credits) != 0 {
		t.Fatal("no balance mutation expected")
	}
	if len(f.outbox.events) != 0 {
		t.Fatalf("no events expected, got %d", len(f.outbox.events))
	}
}

func TestSettleAbortsOnUnresolvedSeller(t *testing.T) {
	t.Parallel()

	f := newPayoutFixture(t)
	shopA, shopB := uuid.New(), uuid.New()
	f.orders.order = completedOrder(shopA, shopB)
	// shop B is missing from the lookup
	f.shops.shops = []models.Shop{{ID: shopA, UserID: uuid.New()}}

	ok, err := f.svc.Settle(context.Background(), f.orders.order.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if ok {
		t.Fatal("expected payout to be rejected")
	}
	if len(f.users.credits) != 0 || len(f.ledger.created) != 0 {
		t.Fatal("no partial payout may be written")
	}
}
