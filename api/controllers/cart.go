package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/smartcart/api/middleware"
	"github.com/angelmondragon/smartcart/api/responses"
	"github.com/angelmondragon/smartcart/api/validators"
	"github.com/angelmondragon/smartcart/internal/session"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/angelmondragon/smartcart/pkg/logger"
)

type cartItemResponse struct {
	Product   productResponse `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal int             `json:"line_total"`
}

type cartResponse struct {
	Items        []cartItemResponse `json:"items"`
	CartTotal    int                `json:"cart_total"`
	ItemsCount   int                `json:"items_count"`
	PointsToEarn int                `json:"points_to_earn"`
}

func newCartResponse(view session.View) cartResponse {
	items := make([]cartItemResponse, 0, len(view.Entries))
	for _, entry := range view.Entries {
		items = append(items, cartItemResponse{
			Product:   newProductResponse(entry.Product),
			Quantity:  entry.Quantity,
			LineTotal: entry.LineTotal(),
		})
	}
	return cartResponse{
		Items:        items,
		CartTotal:    view.Totals.CartTotal,
		ItemsCount:   view.Totals.ItemsCount,
		PointsToEarn: view.Totals.PointsToEarn,
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
}

// CartGet returns the cart with its derived aggregates.
func CartGet(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.View(ctx, sessionID)
	})
}

// CartAddItem adds one unit of the posted product.
func CartAddItem(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, r *http.Request) (session.View, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return session.View{}, err
		}
		return svc.AddToCart(ctx, sessionID, strings.TrimSpace(payload.ProductID))
	})
}

// CartRemoveItem drops the product's entry. Absent products are a no-op.
func CartRemoveItem(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, r *http.Request) (session.View, error) {
		return svc.RemoveFromCart(ctx, sessionID, productIDParam(r))
	})
}

func CartIncrementItem(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, r *http.Request) (session.View, error) {
		return svc.IncrementQuantity(ctx, sessionID, productIDParam(r))
	})
}

// CartDecrementItem lowers the quantity but never below one.
func CartDecrementItem(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, r *http.Request) (session.View, error) {
		return svc.DecrementQuantity(ctx, sessionID, productIDParam(r))
	})
}

func CartClear(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return cartCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.ClearCart(ctx, sessionID)
	})
}

type sessionCommand func(ctx context.Context, sessionID string, r *http.Request) (session.View, error)

func cartCommand(svc CartSessions, logg *logger.Logger, run sessionCommand) http.HandlerFunc {
	return viewCommand(svc, logg, run, newCartResponse)
}

func viewCommand[T any](svc CartSessions, logg *logger.Logger, run sessionCommand, render func(session.View) T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "session not found"))
			return
		}

		view, err := run(r.Context(), sessionID, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, render(view))
	}
}

func productIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "productID"))
}
