package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/smartcart/api/middleware"
	"github.com/angelmondragon/smartcart/api/responses"
	"github.com/angelmondragon/smartcart/api/validators"
	"github.com/angelmondragon/smartcart/internal/session"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/angelmondragon/smartcart/pkg/logger"
)

// CartSessions is the session surface the HTTP layer drives.
type CartSessions interface {
	Start(ctx context.Context, accountID string) (session.View, error)
	End(ctx context.Context, sessionID string) error
	View(ctx context.Context, sessionID string) (session.View, error)
	Checkout(ctx context.Context, sessionID string) (session.View, error)
	AddToCart(ctx context.Context, sessionID, productID string) (session.View, error)
	RemoveFromCart(ctx context.Context, sessionID, productID string) (session.View, error)
	IncrementQuantity(ctx context.Context, sessionID, productID string) (session.View, error)
	DecrementQuantity(ctx context.Context, sessionID, productID string) (session.View, error)
	ClearCart(ctx context.Context, sessionID string) (session.View, error)
	ApplyPromo(ctx context.Context, sessionID, code string) (session.View, bool, error)
	RemovePromo(ctx context.Context, sessionID string) (session.View, error)
	ApplyLoyaltyPoints(ctx context.Context, sessionID string) (session.View, error)
	ResetLoyaltyPoints(ctx context.Context, sessionID string) (session.View, error)
	ProceedToCheckout(ctx context.Context, sessionID string) (session.View, error)
}

type startSessionRequest struct {
	AccountID string `json:"account_id" validate:"max=128"`
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	AccountID string       `json:"account_id,omitempty"`
	Cart      cartResponse `json:"cart"`
}

// SessionStart opens a cart session for the shopper logging in.
func SessionStart(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload startSessionRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.Start(r.Context(), validators.SanitizeString(payload.AccountID, 128))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			SessionID: view.SessionID,
			AccountID: view.AccountID,
			Cart:      newCartResponse(view),
		})
	}
}

// SessionEnd logs the shopper out and discards the cart.
func SessionEnd(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		if err := svc.End(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
