package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/smartcart/api/middleware"
	"github.com/angelmondragon/smartcart/api/responses"
	"github.com/angelmondragon/smartcart/api/validators"
	"github.com/angelmondragon/smartcart/internal/checkout"
	"github.com/angelmondragon/smartcart/internal/session"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/angelmondragon/smartcart/pkg/logger"
)

type loyaltyResponse struct {
	AvailablePoints *int `json:"available_points,omitempty"`
	PointsUsed      int  `json:"points_used"`
}

type checkoutResponse struct {
	Cart                  cartResponse         `json:"cart"`
	Promo                 checkout.PromoState  `json:"promo"`
	PromoState            checkout.PromoAxis   `json:"promo_state"`
	Loyalty               loyaltyResponse      `json:"loyalty"`
	LoyaltyState          checkout.LoyaltyAxis `json:"loyalty_state"`
	Summary               checkout.Summary     `json:"summary"`
	FreeDeliveryThreshold int                  `json:"free_delivery_threshold"`
}

func newCheckoutResponse(view session.View) checkoutResponse {
	return checkoutResponse{
		Cart:       newCartResponse(view),
		Promo:      view.Promo,
		PromoState: view.PromoAxis,
		Loyalty: loyaltyResponse{
			AvailablePoints: view.AvailablePoints,
			PointsUsed:      view.Loyalty.PointsUsed,
		},
		LoyaltyState:          view.LoyaltyAxis,
		Summary:               view.Summary,
		FreeDeliveryThreshold: checkout.FreeDeliveryThreshold,
	}
}

type applyPromoRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

type applyPromoResponse struct {
	Applied  bool             `json:"applied"`
	Checkout checkoutResponse `json:"checkout"`
}

// CheckoutGet returns the payable breakdown plus the redeemable balance.
func CheckoutGet(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.Checkout(ctx, sessionID)
	})
}

// CheckoutApplyPromo answers 200 for unrecognized codes with applied=false;
// the existing promo stays in effect.
func CheckoutApplyPromo(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, applied, err := svc.ApplyPromo(r.Context(), middleware.SessionIDFromContext(r.Context()), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, applyPromoResponse{Applied: applied, Checkout: newCheckoutResponse(view)})
	}
}

func CheckoutRemovePromo(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.RemovePromo(ctx, sessionID)
	})
}

// CheckoutApplyLoyalty redeems min(balance, cart total) points.
func CheckoutApplyLoyalty(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.ApplyLoyaltyPoints(ctx, sessionID)
	})
}

func CheckoutResetLoyalty(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.ResetLoyaltyPoints(ctx, sessionID)
	})
}

// CheckoutProceed confirms the summary and hands the order downstream.
func CheckoutProceed(svc CartSessions, logg *logger.Logger) http.HandlerFunc {
	return checkoutCommand(svc, logg, func(ctx context.Context, sessionID string, _ *http.Request) (session.View, error) {
		return svc.ProceedToCheckout(ctx, sessionID)
	})
}

func checkoutCommand(svc CartSessions, logg *logger.Logger, run sessionCommand) http.HandlerFunc {
	return viewCommand(svc, logg, run, newCheckoutResponse)
}
