package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/api/middleware"
	"github.com/nguyendm/salemarket-backend/internal/orders"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

type testOrdersService struct {
	createFn       func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	updateStatusFn func(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error)
	cancelFn       func(ctx context.Context, input orders.CancelOrderInput) error
	returnFn       func(ctx context.Context, input orders.ReturnRequestInput) (*models.ReturnRequest, error)
	getFn          func(ctx context.Context, orderID uuid.UUID, actor types.AuthContext) (*models.Order, error)
	listFn         func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	historyFn      func(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
}

func (s *testOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) UpdateOrderStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, input)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) CancelOrder(ctx context.Context, input orders.CancelOrderInput) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return nil
}

func (s *testOrdersService) RequestReturn(ctx context.Context, input orders.ReturnRequestInput) (*models.ReturnRequest, error) {
	if s.returnFn != nil {
		return s.returnFn(ctx, input)
	}
	return &models.ReturnRequest{}, nil
}

func (s *testOrdersService) GetOrder(ctx context.Context, orderID uuid.UUID, actor types.AuthContext) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID, actor)
	}
	return &models.Order{}, nil
}

func (s *testOrdersService) ListOrders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func (s *testOrdersService) GetOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, orderID)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withTestAuth(req *http.Request, auth types.AuthContext) *http.Request {
	return req.WithContext(middleware.WithAuth(req.Context(), auth))
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCheckoutSuccess(t *testing.T) {
	buyerID := uuid.New()
	itemID := uuid.New()
	var gotInput orders.CreateOrderInput
	svc := &testOrdersService{
		createFn: func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
			gotInput = input
			return &models.Order{
				ID:          uuid.New(),
				Status:      enums.OrderStatusPending,
				TotalAmount: decimal.NewFromInt(100),
			}, nil
		},
	}

	body := `{"item_ids":["` + itemID.String() + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "ck-123")
	req = withTestAuth(req, types.AuthContext{UserID: buyerID, Roles: []enums.Role{enums.RoleBuyer}})

	resp := httptest.NewRecorder()
	Checkout(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.BuyerID != buyerID {
		t.Fatalf("expected buyer %s got %s", buyerID, gotInput.BuyerID)
	}
	if len(gotInput.ItemIDs) != 1 || gotInput.ItemIDs[0] != itemID {
		t.Fatalf("item ids not propagated: %v", gotInput.ItemIDs)
	}
	if gotInput.RequestID == nil || *gotInput.RequestID != "ck-123" {
		t.Fatal("idempotency key should become the request id")
	}
}

func TestCheckoutRejectsEmptyItems(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"item_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req = withTestAuth(req, types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleBuyer}})

	resp := httptest.NewRecorder()
	Checkout(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutMissingAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"item_ids":["`+uuid.NewString()+`"]}`))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	Checkout(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUpdateOrderStatusSuccess(t *testing.T) {
	orderID := uuid.New()
	sellerID := uuid.New()
	var gotInput orders.UpdateStatusInput
	svc := &testOrdersService{
		updateStatusFn: func(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
			gotInput = input
			return &models.Order{ID: input.OrderID, Status: input.Status}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"processing"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withTestAuth(req, types.AuthContext{UserID: sellerID, Roles: []enums.Role{enums.RoleSeller}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	UpdateOrderStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.OrderID != orderID {
		t.Fatalf("unexpected order %s", gotInput.OrderID)
	}
	if gotInput.Status != enums.OrderStatusProcessing {
		t.Fatalf("unexpected target status %s", gotInput.Status)
	}
	if gotInput.Actor.UserID != sellerID {
		t.Fatal("actor not propagated")
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withTestAuth(req, types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleSeller}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	UpdateOrderStatus(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelOrderSuccess(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	var gotInput orders.CancelOrderInput
	svc := &testOrdersService{
		cancelFn: func(ctx context.Context, input orders.CancelOrderInput) error {
			gotInput = input
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", strings.NewReader(`{"reason":"changed my mind"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withTestAuth(req, types.AuthContext{UserID: buyerID, Roles: []enums.Role{enums.RoleBuyer}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	CancelOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotInput.OrderID != orderID || gotInput.BuyerID != buyerID {
		t.Fatal("cancel input not propagated")
	}
	if gotInput.Reason != "changed my mind" {
		t.Fatalf("unexpected reason %q", gotInput.Reason)
	}
}

func TestCancelOrderAllowsEmptyBody(t *testing.T) {
	orderID := uuid.New()
	called := false
	svc := &testOrdersService{
		cancelFn: func(ctx context.Context, input orders.CancelOrderInput) error {
			called = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", nil)
	req = withTestAuth(req, types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleBuyer}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	CancelOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestRequestReturnSuccess(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	svc := &testOrdersService{
		returnFn: func(ctx context.Context, input orders.ReturnRequestInput) (*models.ReturnRequest, error) {
			if input.OrderID != orderID || input.BuyerID != buyerID {
				t.Fatal("return input not propagated")
			}
			return &models.ReturnRequest{
				ID:      uuid.New(),
				OrderID: orderID,
				Status:  enums.ReturnStatusPending,
				Reason:  input.Reason,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/return", strings.NewReader(`{"reason":"damaged box"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withTestAuth(req, types.AuthContext{UserID: buyerID, Roles: []enums.Role{enums.RoleBuyer}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	RequestReturn(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data returnRequestResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.OrderID != orderID {
		t.Fatalf("unexpected order id %s", envelope.Data.OrderID)
	}
	if envelope.Data.Reason == nil || *envelope.Data.Reason != "damaged box" {
		t.Fatal("reason not echoed")
	}
}

func TestGetOrderInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = withTestAuth(req, types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleBuyer}})
	req = addRouteParam(req, "orderId", "not-a-uuid")

	resp := httptest.NewRecorder()
	GetOrder(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersPassesLimit(t *testing.T) {
	userID := uuid.New()
	var gotLimit int
	svc := &testOrdersService{
		listFn: func(ctx context.Context, uid uuid.UUID, limit int) ([]models.Order, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			gotLimit = limit
			return []models.Order{{ID: uuid.New()}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5", nil)
	req = withTestAuth(req, types.AuthContext{UserID: userID, Roles: []enums.Role{enums.RoleBuyer}})

	resp := httptest.NewRecorder()
	ListOrders(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotLimit != 5 {
		t.Fatalf("expected limit 5 got %d", gotLimit)
	}
}

func TestOrderHistoryDeniedWhenOrderHidden(t *testing.T) {
	orderID := uuid.New()
	historyCalled := false
	svc := &testOrdersService{
		getFn: func(ctx context.Context, oid uuid.UUID, actor types.AuthContext) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not your order")
		},
		historyFn: func(ctx context.Context, oid uuid.UUID) ([]models.OrderHistory, error) {
			historyCalled = true
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/history", nil)
	req = withTestAuth(req, types.AuthContext{UserID: uuid.New(), Roles: []enums.Role{enums.RoleBuyer}})
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if historyCalled {
		t.Fatal("history should not load when the order is not visible")
	}
}
