package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nguyendm/salemarket-backend/internal/cart"
	"github.com/nguyendm/salemarket-backend/internal/inventory"
	"github.com/nguyendm/salemarket-backend/internal/shipping"
	"github.com/nguyendm/salemarket-backend/internal/shops"
	"github.com/nguyendm/salemarket-backend/internal/users"
	"github.com/nguyendm/salemarket-backend/internal/vouchers"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/outbox"
	"github.com/nguyendm/salemarket-backend/pkg/outbox/payloads"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

const shippingProviderName = "GHN"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Carrier is the external shipping collaborator. Fee quotes happen
// before the checkout transaction; shipment creation happens after
// commit and is best effort.
type Carrier interface {
	CalculateFee(ctx context.Context, shop *models.Shop, buyer *models.User) (decimal.Decimal, error)
	CreateShippingOrder(ctx context.Context, order *models.Order, buyer *models.User, lines []shipping.ShipmentLine) (string, error)
}

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) error
	RequestReturn(ctx context.Context, input ReturnRequestInput) (*models.ReturnRequest, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor types.AuthContext) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	GetOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	carrier  Carrier
	carts    cart.Repository
	vouchers vouchers.Repository
	shops    shops.Repository
	users    users.Repository
	logg     *logger.Logger
}

// NewService builds an order service with the required collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	carrier Carrier,
	carts cart.Repository,
	voucherRepo vouchers.Repository,
	shopRepo shops.Repository,
	userRepo users.Repository,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if carrier == nil {
		return nil, fmt.Errorf("shipping carrier required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if voucherRepo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		carrier:  carrier,
		carts:    carts,
		vouchers: voucherRepo,
		shops:    shopRepo,
		users:    userRepo,
		logg:     logg,
	}, nil
}

// CreateOrder assembles an order from the buyer's cart lines. The
// carrier fee quote runs before the transaction so a slow carrier never
// holds row locks; the physical shipment is registered after commit.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.ItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one cart item is required")
	}

	// Replayed request ids return the already-committed order.
	if input.RequestID != nil && *input.RequestID != "" {
		existing, err := s.repo.FindByRequestID(ctx, *input.RequestID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up request id")
		}
		if existing != nil {
			return existing, nil
		}
	}

	buyer, err := s.users.FindByID(ctx, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	lines, err := s.selectCartLines(ctx, input.BuyerID, input.ItemIDs)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shippingFee, shopIDs, err := s.quoteShipping(ctx, lines, buyer)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	productVoucher, productDiscount, err := s.evaluateVoucher(ctx, input.VoucherProductID, enums.VoucherTargetProduct, subtotal, subtotal, now)
	if err != nil {
		return nil, err
	}
	shippingVoucher, shippingDiscount, err := s.evaluateVoucher(ctx, input.VoucherShippingID, enums.VoucherTargetShipping, shippingFee, subtotal, now)
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(productDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Add(shippingFee).Sub(shippingDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	lat, lng := buyer.Latitude, buyer.Longitude
	if input.ShipToLatitude != nil && input.ShipToLongitude != nil {
		lat, lng = *input.ShipToLatitude, *input.ShipToLongitude
	}

	order := &models.Order{
		ID:                     uuid.New(),
		UserID:                 input.BuyerID,
		RequestID:              input.RequestID,
		Latitude:               lat,
		Longitude:              lng,
		VoucherProductID:       input.VoucherProductID,
		VoucherShippingID:      input.VoucherShippingID,
		DiscountProductAmount:  productDiscount,
		DiscountShippingAmount: shippingDiscount,
		SubTotal:               subtotal,
		ShippingFee:            shippingFee,
		TotalAmount:            total,
		Status:                 enums.OrderStatusPending,
		OrderDate:              now,
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:       uuid.New(),
			OrderID:  order.ID,
			ShopID:   line.Item.ShopID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Price:    line.Item.Price,
		})
	}

	reservations := make([]inventory.ReservationRequest, 0, len(lines))
	for _, line := range lines {
		reservations = append(reservations, inventory.ReservationRequest{ItemID: line.ItemID, Qty: line.Quantity})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := inventory.Reserve(ctx, tx, reservations); err != nil {
			return err
		}
		if err := s.consumeVoucher(ctx, tx, productVoucher); err != nil {
			return err
		}
		if err := s.consumeVoucher(ctx, tx, shippingVoucher); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		note := "order created"
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Status:      enums.OrderStatusPending,
			Note:        &note,
			CreatedDate: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order history")
		}

		cartRepo := s.carts.WithTx(tx)
		for _, line := range lines {
			if err := cartRepo.Delete(ctx, line.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart line")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.BuyerID, enums.RoleBuyer),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				BuyerID:     input.BuyerID,
				ShopIDs:     shopIDs,
				TotalAmount: total,
				OrderDate:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.registerShipment(ctx, order, buyer, lines)
	return order, nil
}

// UpdateOrderStatus applies a role-checked status transition with the
// order's version token as the optimistic guard.
func (s *service) UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.Status))
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	isAdmin := input.Actor.IsAdmin()
	if !isAdmin {
		owns := false
		if input.Actor.HasRole(enums.RoleSeller) {
			owns, err = s.repo.SellerOwnsLine(ctx, order.ID, input.Actor.UserID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller ownership")
			}
		}
		if !owns {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to update this order")
		}
		if !sellerCanTransition(order.Status, input.Status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("transition %s to %s not allowed", order.Status, input.Status))
		}
	}

	from := order.Status
	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.UpdateStatusGuarded(ctx, order.ID, order.Version, input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "order was modified concurrently, retry with fresh data")
		}
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Status:      input.Status,
			Note:        input.Note,
			CreatedDate: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order history")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor.UserID, primaryRole(input.Actor)),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				BuyerID:    order.UserID,
				FromStatus: from,
				ToStatus:   input.Status,
				ChangedBy:  input.Actor.UserID,
				ChangedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = input.Status
	order.Version++
	return order, nil
}

// CancelOrder cancels a pending order, returning its stock and voucher
// holds inside the same transaction.
func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return err
	}
	if order.UserID != input.BuyerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled")
	}

	releases := make([]inventory.ReservationRequest, 0, len(order.Items))
	for _, item := range order.Items {
		releases = append(releases, inventory.ReservationRequest{ItemID: item.ItemID, Qty: item.Quantity})
	}

	now := time.Now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.UpdateStatusGuarded(ctx, order.ID, order.Version, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "order was modified concurrently, retry with fresh data")
		}

		if err := inventory.Release(ctx, tx, releases); err != nil {
			return err
		}

		voucherRepo := s.vouchers.WithTx(tx)
		if order.VoucherProductID != nil {
			if err := voucherRepo.Restore(ctx, *order.VoucherProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product voucher")
			}
		}
		if order.VoucherShippingID != nil {
			if err := voucherRepo.Restore(ctx, *order.VoucherShippingID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore shipping voucher")
			}
		}

		note := "order cancelled"
		if input.Reason != "" {
			note = input.Reason
		}
		if err := repo.AppendHistory(ctx, &models.OrderHistory{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Status:      enums.OrderStatusCancelled,
			Note:        &note,
			CreatedDate: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order history")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.BuyerID, enums.RoleBuyer),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				BuyerID:     order.UserID,
				CancelledAt: now,
				Reason:      input.Reason,
			},
		})
	})
}

// RequestReturn files a return for a delivered order.
func (s *service) RequestReturn(ctx context.Context, input ReturnRequestInput) (*models.ReturnRequest, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}

	now := time.Now().UTC()
	request := &models.ReturnRequest{
		ID:          uuid.New(),
		OrderID:     order.ID,
		UserID:      input.BuyerID,
		Reason:      input.Reason,
		Status:      enums.ReturnStatusPending,
		RequestedAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateReturnRequest(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist return request")
		}
		reason := ""
		if input.Reason != nil {
			reason = *input.Reason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturnRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         buildActor(input.BuyerID, enums.RoleBuyer),
			Data: payloads.ReturnRequestedEvent{
				ReturnRequestID: request.ID,
				OrderID:         order.ID,
				BuyerID:         input.BuyerID,
				Reason:          reason,
				RequestedAt:     now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor types.AuthContext) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == actor.UserID || actor.IsAdmin() {
		return order, nil
	}
	if actor.HasRole(enums.RoleSeller) {
		owns, err := s.repo.SellerOwnsLine(ctx, order.ID, actor.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check seller ownership")
		}
		if owns {
			return order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to view this order")
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// GetOrderHistory returns the audit trail in chronological order; an
// order with no history yields an empty slice, not an error.
func (s *service) GetOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	if entries == nil {
		entries = []models.OrderHistory{}
	}
	return entries, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// selectCartLines loads the buyer's cart and keeps only the requested
// item ids; every requested id must exist as a cart line.
func (s *service) selectCartLines(ctx context.Context, buyerID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	all, err := s.carts.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	byItem := make(map[uuid.UUID]models.CartItem, len(all))
	for _, line := range all {
		byItem[line.ItemID] = line
	}

	selected := make([]models.CartItem, 0, len(itemIDs))
	seen := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		line, ok := byItem[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %s is not in the cart", id))
		}
		if line.Item == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("item %s no longer exists", id))
		}
		selected = append(selected, line)
	}
	return selected, nil
}

// quoteShipping sums one carrier fee per distinct shop across the
// selected lines.
func (s *service) quoteShipping(ctx context.Context, lines []models.CartItem, buyer *models.User) (decimal.Decimal, []uuid.UUID, error) {
	shopIDs := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !seen[line.Item.ShopID] {
			seen[line.Item.ShopID] = true
			shopIDs = append(shopIDs, line.Item.ShopID)
		}
	}

	shopList, err := s.shops.FindByIDs(ctx, shopIDs)
	if err != nil {
		return decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shops")
	}
	if len(shopList) != len(shopIDs) {
		return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a shop on this order no longer exists")
	}

	total := decimal.Zero
	for i := range shopList {
		fee, err := s.carrier.CalculateFee(ctx, &shopList[i], buyer)
		if err != nil {
			return decimal.Zero, nil, err
		}
		total = total.Add(fee)
	}
	return total, shopIDs, nil
}

// evaluateVoucher loads and prices one voucher slot. The version token
// read here guards the in-transaction consume.
func (s *service) evaluateVoucher(ctx context.Context, voucherID *uuid.UUID, target enums.VoucherTarget, base, subtotal decimal.Decimal, now time.Time) (*models.Voucher, decimal.Decimal, error) {
	if voucherID == nil {
		return nil, decimal.Zero, nil
	}
	voucher, err := s.vouchers.FindByID(ctx, *voucherID)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	if voucher != nil && voucher.TargetType != target {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("voucher %s does not apply to %s", voucher.Code, target))
	}
	discount, err := vouchers.Evaluate(voucher, base, subtotal, now)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return voucher, discount, nil
}

func (s *service) consumeVoucher(ctx context.Context, tx *gorm.DB, voucher *models.Voucher) error {
	if voucher == nil {
		return nil
	}
	ok, err := s.vouchers.WithTx(tx).Consume(ctx, voucher.ID, voucher.Version)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume voucher")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConcurrency,
			fmt.Sprintf("voucher %s changed, retry with fresh data", voucher.Code))
	}
	return nil
}

// registerShipment creates the physical shipment after the order has
// committed. Failure leaves the tracking code empty and is only logged.
func (s *service) registerShipment(ctx context.Context, order *models.Order, buyer *models.User, lines []models.CartItem) {
	shipmentLines := make([]shipping.ShipmentLine, 0, len(lines))
	for _, line := range lines {
		shipmentLines = append(shipmentLines, shipping.ShipmentLine{
			Name:     line.Item.Name,
			Quantity: line.Quantity,
			Price:    int(line.Item.Price.IntPart()),
		})
	}

	trackingCode, err := s.carrier.CreateShippingOrder(ctx, order, buyer, shipmentLines)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "carrier shipment creation failed", err)
		}
		return
	}
	if err := s.repo.UpdateTracking(ctx, order.ID, trackingCode, shippingProviderName); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "persist tracking code failed", err)
		}
		return
	}
	order.TrackingCode = &trackingCode
	provider := shippingProviderName
	order.ShippingProvider = &provider
}

func buildActor(userID uuid.UUID, role enums.Role) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: role.String()}
}

func primaryRole(actor types.AuthContext) enums.Role {
	switch {
	case actor.IsAdmin():
		return enums.RoleAdmin
	case actor.HasRole(enums.RoleSeller):
		return enums.RoleSeller
	default:
		return enums.RoleBuyer
	}
}
