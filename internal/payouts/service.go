package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nguyendm/salemarket-backend/internal/ledger"
	"github.com/nguyendm/salemarket-backend/internal/shops"
	"github.com/nguyendm/salemarket-backend/internal/users"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/outbox"
	"github.com/nguyendm/salemarket-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Service settles seller payouts for completed orders.
type Service struct {
	orders orderFinder
	shops  shops.Repository
	users  users.Repository
	ledger ledger.Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the payout service with its collaborators.
func NewService(
	orders orderFinder,
	shopRepo shops.Repository,
	userRepo users.Repository,
	ledgerRepo ledger.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	logg *logger.Logger,
) (*Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if shopRepo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		orders: orders,
		shops:  shopRepo,
		users:  userRepo,
		ledger: ledgerRepo,
		tx:     tx,
		outbox: outboxSvc,
		logg:   logg,
	}, nil
}

// Settle credits every seller on the order and writes one ledger
// transaction per shop, all inside a single database transaction. The
// boolean reports whether a payout was written: false covers missing,
// not-yet-completed, and already-settled orders as well as unresolvable
// sellers. Only infrastructure failures return an error.
func (s *Service) Settle(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusCompleted {
		return false, nil
	}

	settled, err := s.ledger.ExistsForOrder(ctx, order.ID, enums.TransactionTypeOrderPayment)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payout")
	}
	if settled {
		return false, nil
	}

	payouts, err := s.resolvePayouts(ctx, order)
	if err != nil {
		return false, err
	}
	if payouts == nil {
		return false, nil
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		// Serialize concurrent settlements on the order row, then re-check
		// under the lock; the check above is only a fast path.
		if tx != nil {
			if err := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				Take(&models.Order{}, "id = ?", order.ID).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order for settlement")
			}
		}
		settled, err := ledgerRepo.ExistsForOrder(ctx, order.ID, enums.TransactionTypeOrderPayment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payout")
		}
		if settled {
			return errAlreadySettled
		}

		for i := range payouts {
			p := &payouts[i]
			if err := userRepo.CreditBalance(ctx, p.SellerID, p.Amount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit seller balance")
			}
			note := fmt.Sprintf("payout for order %s", order.ID)
			relatedOrderID := order.ID
			txn := &models.Transaction{
				ID:             uuid.New(),
				UserID:         p.SellerID,
				Amount:         p.Amount,
				Type:           enums.TransactionTypeOrderPayment,
				RelatedOrderID: &relatedOrderID,
				Status:         enums.TransactionStatusSuccess,
				Note:           &note,
				Timestamp:      now,
			}
			if err := ledgerRepo.Create(ctx, txn); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout transaction")
			}
			p.TransactionID = txn.ID
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.PayoutSettledEvent{
				OrderID:   order.ID,
				Payouts:   payouts,
				SettledAt: now,
			},
		})
	})
	if errors.Is(err, errAlreadySettled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// errAlreadySettled aborts the settlement transaction when the locked
// re-check finds an existing payout row.
var errAlreadySettled = errors.New("order already settled")

// resolvePayouts groups line items by shop and maps each group to its
// owning seller. A nil result means some seller could not be resolved
// and no payout may be written.
func (s *Service) resolvePayouts(ctx context.Context, order *models.Order) ([]payloads.SellerPayout, error) {
	amounts := make(map[uuid.UUID]decimal.Decimal)
	shopIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if existing, ok := amounts[item.ShopID]; ok {
			amounts[item.ShopID] = existing.Add(lineTotal)
			continue
		}
		amounts[item.ShopID] = lineTotal
		shopIDs = append(shopIDs, item.ShopID)
	}
	if len(shopIDs) == 0 {
		return nil, nil
	}

	shopList, err := s.shops.FindByIDs(ctx, shopIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shops")
	}
	owners := make(map[uuid.UUID]uuid.UUID, len(shopList))
	for _, shop := range shopList {
		owners[shop.ID] = shop.UserID
	}

	payouts := make([]payloads.SellerPayout, 0, len(shopIDs))
	for _, shopID := range shopIDs {
		sellerID, ok := owners[shopID]
		if !ok || sellerID == uuid.Nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "shop_id", shopID.String()), "payout aborted, seller unresolved")
			}
			return nil, nil
		}
		payouts = append(payouts, payloads.SellerPayout{
			ShopID:   shopID,
			SellerID: sellerID,
			Amount:   amounts[shopID],
		})
	}
	return payouts, nil
}
