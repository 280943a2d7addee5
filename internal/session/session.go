package session

import (
	"sync"
	"time"

	"github.com/angelmondragon/smartcart/internal/cart"
	"github.com/angelmondragon/smartcart/internal/checkout"
)

// Session owns one shopper's cart and checkout adjustments from login to
// logout. All access goes through the session mutex.
type Session struct {
	ID        string
	AccountID string
	StartedAt time.Time

	mu    sync.Mutex
	ended bool
	cart  *cart.Store
	adj   *checkout.Adjustments
}

func newSession(id, accountID string, startedAt time.Time, rules []checkout.PromoRule) *Session {
	return &Session{
		ID:        id,
		AccountID: accountID,
		StartedAt: startedAt,
		cart:      cart.NewStore(),
		adj:       checkout.NewAdjustments(rules...),
	}
}

// View is a consistent snapshot of a session taken under its lock.
// AvailablePoints is only set by Manager.Checkout, which reads the live
// balance.
type View struct {
	SessionID       string                `json:"session_id"`
	AccountID       string                `json:"account_id,omitempty"`
	Entries         []cart.Entry          `json:"entries"`
	Totals          cart.Totals           `json:"totals"`
	Promo           checkout.PromoState   `json:"promo"`
	Loyalty         checkout.LoyaltyState `json:"loyalty"`
	PromoAxis       checkout.PromoAxis    `json:"promo_state"`
	LoyaltyAxis     checkout.LoyaltyAxis  `json:"loyalty_state"`
	Summary         checkout.Summary      `json:"summary"`
	AvailablePoints *int                  `json:"available_points,omitempty"`
}

// caller holds s.mu
func (s *Session) snapshot() View {
	totals := s.cart.Totals()
	return View{
		SessionID:       s.ID,
		AccountID:       s.AccountID,
		Entries:         s.cart.Entries(),
		Totals:          totals,
		Promo:           s.adj.Promo(),
		Loyalty:         s.adj.Loyalty(),
		PromoAxis:       s.adj.PromoAxis(),
		LoyaltyAxis:     s.adj.LoyaltyAxis(),
		Summary:         s.adj.Summarize(totals.CartTotal),
	}
}
