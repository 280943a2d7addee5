package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/smartcart/internal/cart"
	"github.com/angelmondragon/smartcart/internal/catalog"
	"github.com/angelmondragon/smartcart/internal/checkout"
	"github.com/angelmondragon/smartcart/internal/events"
	"github.com/angelmondragon/smartcart/internal/loyalty"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/angelmondragon/smartcart/pkg/logger"
	"github.com/angelmondragon/smartcart/pkg/metrics"
)

const (
	OpAddToCart      = "add_to_cart"
	OpRemoveFromCart = "remove_from_cart"
	OpIncrement      = "increment_quantity"
	OpDecrement      = "decrement_quantity"
	OpClearCart      = "clear_cart"
	OpApplyPromo     = "apply_promo"
	OpRemovePromo    = "remove_promo"
	OpApplyLoyalty   = "apply_loyalty"
	OpResetLoyalty   = "reset_loyalty"
	OpProceed        = "proceed_to_checkout"
)

// ManagerParams wires the manager's collaborators. Catalog and Loyalty are
// required; the rest default to no-op implementations.
type ManagerParams struct {
	Catalog     catalog.Catalog
	Loyalty     loyalty.BalanceProvider
	Publisher   events.Publisher
	Metrics     *metrics.CartMetrics
	Logger      *logger.Logger
	PromoRules  []checkout.PromoRule
	MaxSessions int
	Now         func() time.Time
}

// Manager tracks the live sessions and serializes the commands sent to each.
type Manager struct {
	catalog   catalog.Catalog
	loyalty   loyalty.BalanceProvider
	publisher events.Publisher
	metrics   *metrics.CartMetrics
	logg      *logger.Logger
	rules     []checkout.PromoRule
	max       int
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager validates params and returns an empty manager.
func NewManager(p ManagerParams) (*Manager, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Loyalty == nil {
		return nil, fmt.Errorf("loyalty balance provider required")
	}
	if p.Publisher == nil {
		p.Publisher = events.Noop{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Manager{
		catalog:   p.Catalog,
		loyalty:   p.Loyalty,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		logg:      p.Logger,
		rules:     p.PromoRules,
		max:       p.MaxSessions,
		now:       p.Now,
		sessions:  make(map[string]*Session),
	}, nil
}

// Start opens a session with an empty cart and no adjustments.
func (m *Manager) Start(ctx context.Context, accountID string) (View, error) {
	accountID = strings.TrimSpace(accountID)

	m.mu.Lock()
	if m.max > 0 && len(m.sessions) >= m.max {
		m.mu.Unlock()
		return View{}, pkgerrors.New(pkgerrors.CodeConflict, "session limit reached")
	}
	s := newSession(uuid.NewString(), accountID, m.now().UTC(), m.rules)
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.metrics.SessionStarted()
	m.info(m.sessionCtx(ctx, s), "cart session started")

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// End destroys the session and its cart.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return errSessionNotFound(sessionID)
	}

	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	m.metrics.SessionEnded()
	m.info(m.sessionCtx(ctx, s), "cart session ended")
	return nil
}

// ActiveSessions reports how many sessions are open.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// View returns the current cart and checkout snapshot.
func (m *Manager) View(ctx context.Context, sessionID string) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return View{}, errSessionNotFound(sessionID)
	}
	return s.snapshot(), nil
}

// Checkout is View with the account's current redeemable balance filled in.
func (m *Manager) Checkout(ctx context.Context, sessionID string) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return View{}, err
	}
	available, err := m.loyalty.AvailablePoints(ctx, s.AccountID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return View{}, errSessionNotFound(sessionID)
	}
	view := s.snapshot()
	view.AvailablePoints = &available
	return view, nil
}

// AddToCart resolves productID through the catalog and adds one unit.
func (m *Manager) AddToCart(ctx context.Context, sessionID, productID string) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		m.metrics.IncMutation(OpAddToCart, metrics.OutcomeRejected)
		return View{}, err
	}
	product, err := m.catalog.Product(ctx, productID)
	if err != nil {
		m.metrics.IncMutation(OpAddToCart, outcomeFor(err))
		return View{}, err
	}
	return m.mutate(ctx, s, OpAddToCart, func(s *Session) bool {
		return s.cart.AddToCart(product)
	})
}

func (m *Manager) RemoveFromCart(ctx context.Context, sessionID, productID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpRemoveFromCart, func(s *Session) bool {
		return s.cart.RemoveFromCart(productID)
	})
}

func (m *Manager) IncrementQuantity(ctx context.Context, sessionID, productID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpIncrement, func(s *Session) bool {
		return s.cart.IncrementQuantity(productID)
	})
}

func (m *Manager) DecrementQuantity(ctx context.Context, sessionID, productID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpDecrement, func(s *Session) bool {
		return s.cart.DecrementQuantity(productID)
	})
}

func (m *Manager) ClearCart(ctx context.Context, sessionID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpClearCart, func(s *Session) bool {
		return s.cart.ClearCart()
	})
}

// ApplyPromo reports whether code was recognized. An unrecognized code is not
// an error and leaves the current promo in place.
func (m *Manager) ApplyPromo(ctx context.Context, sessionID, code string) (View, bool, error) {
	var applied bool
	view, err := m.mutateByID(ctx, sessionID, OpApplyPromo, func(s *Session) bool {
		before := s.adj.Promo()
		applied = s.adj.ApplyPromo(code)
		return applied && before != s.adj.Promo()
	})
	return view, applied, err
}

func (m *Manager) RemovePromo(ctx context.Context, sessionID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpRemovePromo, func(s *Session) bool {
		return s.adj.RemovePromo()
	})
}

// ApplyLoyaltyPoints redeems min(available balance, cart total) points. The
// balance is read from the loyalty provider before the session is locked.
func (m *Manager) ApplyLoyaltyPoints(ctx context.Context, sessionID string) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return View{}, err
	}
	available, err := m.loyalty.AvailablePoints(ctx, s.AccountID)
	if err != nil {
		m.metrics.IncMutation(OpApplyLoyalty, metrics.OutcomeError)
		return View{}, err
	}
	return m.mutate(ctx, s, OpApplyLoyalty, func(s *Session) bool {
		before := s.adj.Loyalty()
		s.adj.ApplyLoyaltyPoints(available, s.cart.CartTotal())
		return before != s.adj.Loyalty()
	})
}

func (m *Manager) ResetLoyaltyPoints(ctx context.Context, sessionID string) (View, error) {
	return m.mutateByID(ctx, sessionID, OpResetLoyalty, func(s *Session) bool {
		if s.adj.Loyalty().PointsUsed == 0 {
			return false
		}
		s.adj.ResetLoyaltyPoints()
		return true
	})
}

// ProceedToCheckout publishes the checkout intent for a non-empty cart. The
// cart is left as is; order placement happens downstream.
func (m *Manager) ProceedToCheckout(ctx context.Context, sessionID string) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return View{}, errSessionNotFound(sessionID)
	}
	view := s.snapshot()
	s.mu.Unlock()

	ctx = m.sessionCtx(ctx, s)
	if len(view.Entries) == 0 {
		m.metrics.IncMutation(OpProceed, metrics.OutcomeRejected)
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	env, err := events.NewEnvelope(events.EventCheckoutProceeded, s.ID, m.now(), checkoutPayload(view))
	if err != nil {
		m.metrics.IncMutation(OpProceed, metrics.OutcomeError)
		return View{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build checkout event")
	}
	if err := m.publisher.Publish(ctx, env); err != nil {
		m.metrics.IncMutation(OpProceed, metrics.OutcomeError)
		m.logError(ctx, "publish checkout event failed", err)
		return View{}, err
	}

	m.metrics.IncMutation(OpProceed, metrics.OutcomeChanged)
	m.metrics.ObservePayable(view.Summary.TotalPayable)
	if m.logg != nil {
		m.logg.Info(m.logg.WithFields(ctx, map[string]any{
			"event_id":      env.EventID,
			"total_payable": view.Summary.TotalPayable,
		}), "proceeding to checkout")
	}
	return view, nil
}

// Shutdown ends every open session and closes the publisher.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range open {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		m.metrics.SessionEnded()
	}
	if len(open) > 0 {
		m.info(ctx, fmt.Sprintf("closed %d cart sessions", len(open)))
	}

	var errs error
	if err := ctx.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return multierr.Append(errs, m.publisher.Close())
}

func (m *Manager) lookup(sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, errSessionNotFound(sessionID)
	}
	return s, nil
}

func (m *Manager) mutateByID(ctx context.Context, sessionID, op string, fn func(*Session) bool) (View, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		m.metrics.IncMutation(op, metrics.OutcomeRejected)
		return View{}, err
	}
	return m.mutate(ctx, s, op, fn)
}

// mutate runs fn under the session lock. Any change to the cart re-clamps the
// loyalty redemption so it never exceeds the new cart total.
func (m *Manager) mutate(ctx context.Context, s *Session, op string, fn func(*Session) bool) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		m.metrics.IncMutation(op, metrics.OutcomeRejected)
		return View{}, errSessionNotFound(s.ID)
	}

	changed := fn(s)
	clamped := s.adj.Clamp(s.cart.CartTotal())

	outcome := metrics.OutcomeNoop
	if changed || clamped {
		outcome = metrics.OutcomeChanged
	}
	m.metrics.IncMutation(op, outcome)
	if m.logg != nil {
		m.logg.Debug(m.logg.WithFields(m.sessionCtx(ctx, s), map[string]any{
			"op":      op,
			"outcome": outcome,
			"clamped": clamped,
		}), "cart command applied")
	}
	return s.snapshot(), nil
}

func (m *Manager) sessionCtx(ctx context.Context, s *Session) context.Context {
	if m.logg == nil {
		return ctx
	}
	ctx = m.logg.WithSessionID(ctx, s.ID)
	if s.AccountID != "" {
		ctx = m.logg.WithAccountID(ctx, s.AccountID)
	}
	return ctx
}

func (m *Manager) info(ctx context.Context, msg string) {
	if m.logg != nil {
		m.logg.Info(ctx, msg)
	}
}

func (m *Manager) logError(ctx context.Context, msg string, err error) {
	if m.logg != nil {
		m.logg.Error(ctx, msg, err)
	}
}

func errSessionNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "session not found").
		WithDetails(map[string]any{"session_id": id})
}

func outcomeFor(err error) string {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound), pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func checkoutPayload(view View) events.CheckoutProceeded {
	lines := make([]events.CheckoutLine, 0, len(view.Entries))
	for _, entry := range view.Entries {
		lines = append(lines, checkoutLine(entry))
	}
	return events.CheckoutProceeded{
		SessionID:         view.SessionID,
		AccountID:         view.AccountID,
		Lines:             lines,
		ItemsCount:        view.Totals.ItemsCount,
		Subtotal:          view.Summary.Subtotal,
		PromoCode:         view.Promo.Code,
		Discount:          view.Summary.Discount,
		LoyaltyPointsUsed: view.Summary.LoyaltyDiscount,
		DeliveryFee:       view.Summary.DeliveryFee,
		TotalPayable:      view.Summary.TotalPayable,
		PointsToEarn:      view.Totals.PointsToEarn,
	}
}

func checkoutLine(entry cart.Entry) events.CheckoutLine {
	return events.CheckoutLine{
		ProductID: entry.Product.ID,
		Quantity:  entry.Quantity,
		UnitPrice: entry.Product.EffectivePrice(),
		LineTotal: entry.LineTotal(),
	}
}
