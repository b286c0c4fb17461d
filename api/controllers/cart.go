package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/api/middleware"
	"github.com/nguyendm/salemarket-backend/api/responses"
	"github.com/nguyendm/salemarket-backend/api/validators"
	"github.com/nguyendm/salemarket-backend/internal/cart"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/types"
)

type cartLineResponse struct {
	ID        uuid.UUID        `json:"id"`
	ItemID    uuid.UUID        `json:"item_id"`
	Quantity  int              `json:"quantity"`
	Name      string           `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Stock     *int             `json:"stock,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newCartLineResponse(line models.CartItem) cartLineResponse {
	resp := cartLineResponse{
		ID:        line.ID,
		ItemID:    line.ItemID,
		Quantity:  line.Quantity,
		UpdatedAt: line.UpdatedAt,
	}
	if line.Item != nil {
		resp.Name = line.Item.Name
		price := line.Item.Price
		stock := line.Item.Stock
		resp.Price = &price
		resp.Stock = &stock
	}
	return resp
}

// CartList returns the caller's cart lines.
func CartList(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := middleware.AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		lines, err := svc.List(r.Context(), auth.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]cartLineResponse, 0, len(lines))
		for _, line := range lines {
			out = append(out, newCartLineResponse(line))
		}
		responses.WriteSuccess(w, out)
	}
}

type cartAddRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// CartAdd adds an item to the cart, merging with an existing line.
func CartAdd(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, ok := middleware.AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body cartAddRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddItem(r.Context(), auth.UserID, body.ItemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "added"})
	}
}

type cartUpdateRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartUpdate sets a line quantity; zero removes the line.
func CartUpdate(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, itemID, err := cartCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateQuantity(r.Context(), auth.UserID, itemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// CartRemove deletes the line for the item.
func CartRemove(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth, itemID, err := cartCallContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), auth.UserID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func cartCallContext(r *http.Request) (types.AuthContext, uuid.UUID, error) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		return types.AuthContext{}, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		return types.AuthContext{}, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return auth, itemID, nil
}
