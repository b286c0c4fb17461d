package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/api/middleware"
	"github.com/nguyendm/salemarket-backend/api/responses"
	"github.com/nguyendm/salemarket-backend/api/validators"
	"github.com/nguyendm/salemarket-backend/internal/orders"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

type orderItemResponse struct {
	ID       uuid.UUID       `json:"id"`
	ShopID   uuid.UUID       `json:"shop_id"`
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID                     uuid.UUID           `json:"id"`
	Status                 enums.OrderStatus   `json:"status"`
	SubTotal               decimal.Decimal     `json:"sub_total"`
	ShippingFee            decimal.Decimal     `json:"shipping_fee"`
	DiscountProductAmount  decimal.Decimal     `json:"discount_product_amount"`
	DiscountShippingAmount decimal.Decimal     `json:"discount_shipping_amount"`
	TotalAmount            decimal.Decimal     `json:"total_amount"`
	TrackingCode           *string             `json:"tracking_code,omitempty"`
	ShippingProvider       *string             `json:"shipping_provider,omitempty"`
	OrderDate              time.Time           `json:"order_date"`
	Version                uint64              `json:"version"`
	Items                  []orderItemResponse `json:"items"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:       item.ID,
			ShopID:   item.ShopID,
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return orderResponse{
		ID:                     order.ID,
		Status:                 order.Status,
		SubTotal:               order.SubTotal,
		ShippingFee:            order.ShippingFee,
		DiscountProductAmount:  order.DiscountProductAmount,
		DiscountShippingAmount: order.DiscountShippingAmount,
		TotalAmount:            order.TotalAmount,
		TrackingCode:           order.TrackingCode,
		ShippingProvider:       order.ShippingProvider,
		OrderDate:              order.OrderDate,
		Version:                order.Version,
		Items:                  items,
	}
}

type checkoutRequest struct {
	ItemIDs           []uuid.UUID `json:"item_ids" validate:"required,min=1"`
	VoucherProductID  *uuid.UUID  `json:"voucher_product_id"`
	VoucherShippingID *uuid.UUID  `json:"voucher_shipping_id"`
	Latitude          *float64    `json:"latitude"`
	Longitude         *float64    `json:"longitude"`
}

// Checkout turns the caller's selected cart lines into an order. The
// Idempotency-Key doubles as the order request id so a replayed checkout
// returns the already-created order.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := middleware.AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			BuyerID:           auth.UserID,
			ItemIDs:           body.ItemIDs,
			VoucherProductID:  body.VoucherProductID,
			VoucherShippingID: body.VoucherShippingID,
			ShipToLatitude:    body.Latitude,
			ShipToLongitude:   body.Longitude,
		}
		if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
			input.RequestID = &key
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := middleware.AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), auth.UserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, newOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetOrder returns one order when the caller may see it.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, orderID, err := orderCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, auth)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

// UpdateOrderStatus moves the order to a new status; sellers are bound to
// the transition table, admins are not.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, orderID, err := orderCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		note := body.Note
		if note != nil {
			clean := validators.SanitizeString(*note, 500)
			note = &clean
		}

		order, err := svc.UpdateOrderStatus(r.Context(), orders.UpdateStatusInput{
			OrderID: orderID,
			Status:  status,
			Note:    note,
			Actor:   auth,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelOrder cancels the caller's pending order and restores its stock.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, orderID, err := orderCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if err := svc.CancelOrder(r.Context(), orders.CancelOrderInput{
			OrderID: orderID,
			BuyerID: auth.UserID,
			Reason:  validators.SanitizeString(body.Reason, 500),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.OrderStatusCancelled)})
	}
}

type returnRequestBody struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type returnRequestResponse struct {
	ID          uuid.UUID          `json:"id"`
	OrderID     uuid.UUID          `json:"order_id"`
	Status      enums.ReturnStatus `json:"status"`
	Reason      *string            `json:"reason,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
}

// RequestReturn files a return request for a delivered order.
func RequestReturn(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, orderID, err := orderCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body returnRequestBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		reason := body.Reason
		if reason != nil {
			clean := validators.SanitizeString(*reason, 500)
			reason = &clean
		}

		request, err := svc.RequestReturn(r.Context(), orders.ReturnRequestInput{
			OrderID: orderID,
			BuyerID: auth.UserID,
			Reason:  reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, returnRequestResponse{
			ID:          request.ID,
			OrderID:     request.OrderID,
			Status:      request.Status,
			Reason:      request.Reason,
			RequestedAt: request.RequestedAt,
		})
	}
}

type orderHistoryResponse struct {
	Status      enums.OrderStatus `json:"status"`
	Note        *string           `json:"note,omitempty"`
	CreatedDate time.Time         `json:"created_date"`
}

// OrderHistory returns the order's audit trail, oldest first.
func OrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, orderID, err := orderCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// visibility follows the order itself
		if _, err := svc.GetOrder(r.Context(), orderID, auth); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.GetOrderHistory(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]orderHistoryResponse, 0, len(entries))
		for _, entry := range entries {
			out = append(out, orderHistoryResponse{
				Status:      entry.Status,
				Note:        entry.Note,
				CreatedDate: entry.CreatedDate,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

func orderCallContext(r *http.Request) (types.AuthContext, uuid.UUID, error) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		return types.AuthContext{}, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return types.AuthContext{}, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return auth, orderID, nil
}
