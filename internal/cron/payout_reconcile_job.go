package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
)

const (
	payoutReconcileGraceHours = 1
	payoutReconcileBatch      = 100
)

// PayoutReconcileJobParams configure the payout sweep.
type PayoutReconcileJobParams struct {
	Logger  *logger.Logger
	Orders  unsettledOrderReader
	Settler payoutSettler
	Grace   time.Duration
	Batch   int
}

type unsettledOrderReader interface {
	ListCompletedUnsettled(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
}

type payoutSettler interface {
	Settle(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NewPayoutReconcileJob builds the cron job that settles completed orders
// whose payout was missed, for example when the worker crashed mid-settle.
func NewPayoutReconcileJob(params PayoutReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Settler == nil {
		return nil, fmt.Errorf("payout settler required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = payoutReconcileGraceHours * time.Hour
	}
	batch := params.Batch
	if batch <= 0 {
		batch = payoutReconcileBatch
	}
	return &payoutReconcileJob{
		logg:    params.Logger,
		orders:  params.Orders,
		settler: params.Settler,
		grace:   grace,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type payoutReconcileJob struct {
	logg    *logger.Logger
	orders  unsettledOrderReader
	settler payoutSettler
	grace   time.Duration
	batch   int
	now     func() time.Time
}

func (j *payoutReconcileJob) Name() string { return "payout-reconcile" }

func (j *payoutReconcileJob) Run(ctx context.Context) error {
	// the grace window keeps the sweep off orders the event consumer is
	// still processing
	cutoff := j.now().UTC().Add(-j.grace)
	orders, err := j.orders.ListCompletedUnsettled(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query unsettled orders: %w", err)
	}

	var errs []error
	settled, skipped := 0, 0
	for _, order := range orders {
		ok, err := j.settler.Settle(ctx, order.ID)
		if err != nil {
			orderCtx := j.logg.WithField(ctx, "order_id", order.ID.String())
			j.logg.Error(orderCtx, "payout reconcile settle failed", err)
			errs = append(errs, fmt.Errorf("settle order %s: %w", order.ID, err))
			continue
		}
		if ok {
			settled++
		} else {
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(orders),
		"settled":    settled,
		"skipped":    skipped,
		"failures":   len(errs),
	})
	j.logg.Info(logCtx, "payout reconcile sweep complete")
	return multierr.Combine(errs...)
}
