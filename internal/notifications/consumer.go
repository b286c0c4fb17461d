package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/outbox"
	"github.com/nguyendm/salemarket-backend/pkg/outbox/idempotency"
	"github.com/nguyendm/salemarket-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns them into in-app
// notification rows for buyers and sellers.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, &models.Notification{
			UserID:  payload.BuyerID,
			Type:    enums.NotificationTypeOrderCreated,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order for %s was placed successfully.", payload.TotalAmount),
			Link:    orderLink(payload.OrderID),
		})

	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, &models.Notification{
			UserID:  payload.BuyerID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order updated",
			Message: fmt.Sprintf("Your order is now %s.", payload.ToStatus),
			Link:    orderLink(payload.OrderID),
		})

	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		message := "Your order was cancelled."
		if payload.Reason != "" {
			message = fmt.Sprintf("Your order was cancelled: %s", payload.Reason)
		}
		return c.notify(ctx, logCtx, &models.Notification{
			UserID:  payload.BuyerID,
			Type:    enums.NotificationTypeOrderCancelled,
			Title:   "Order cancelled",
			Message: message,
			Link:    orderLink(payload.OrderID),
		})

	case enums.EventReturnRequested:
		var payload payloads.ReturnRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, &models.Notification{
			UserID:  payload.BuyerID,
			Type:    enums.NotificationTypeReturnUpdate,
			Title:   "Return requested",
			Message: "Your return request was received and is pending review.",
			Link:    orderLink(payload.OrderID),
		})

	case enums.EventPayoutSettled:
		var payload payloads.PayoutSettledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		// one notification per seller credited
		for _, payout := range payload.Payouts {
			if payout.SellerID == uuid.Nil {
				return fmt.Errorf("payout seller id missing")
			}
			err := c.notify(ctx, logCtx, &models.Notification{
				UserID:  payout.SellerID,
				Type:    enums.NotificationTypePayoutSettled,
				Title:   "Payout settled",
				Message: fmt.Sprintf("A payout of %s was credited to your balance.", payout.Amount),
				Link:    orderLink(payload.OrderID),
			})
			if err != nil {
				return err
			}
		}
		return nil

	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) notify(ctx context.Context, logCtx context.Context, notification *models.Notification) error {
	if notification.UserID == uuid.Nil {
		return fmt.Errorf("notification user id missing")
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification stored")
	return nil
}

func orderLink(orderID uuid.UUID) *string {
	link := fmt.Sprintf("/orders/%s", orderID)
	return &link
}
