package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
)

// Service defines operations that record balance transactions.
type Service interface {
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
	HasOrderPayment(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type service struct {
	repo Repository
}

// RecordTransactionInput captures the immutable data a transaction requires.
type RecordTransactionInput struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Type           enums.TransactionType
	RelatedOrderID *uuid.UUID
	Status         enums.TransactionStatus
	Note           *string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("invalid transaction status %q", input.Status)
	}

	txn := &models.Transaction{
		UserID:         input.UserID,
		Amount:         input.Amount,
		Type:           input.Type,
		RelatedOrderID: input.RelatedOrderID,
		Status:         input.Status,
		Note:           input.Note,
		Timestamp:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// HasOrderPayment reports whether an order-payment row already exists
// for the order, which is how payout settlement stays idempotent.
func (s *service) HasOrderPayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	return s.repo.ExistsForOrder(ctx, orderID, enums.TransactionTypeOrderPayment)
}
