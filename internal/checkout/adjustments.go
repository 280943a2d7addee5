package checkout

import "github.com/shopspring/decimal"

// PromoAxis is the promo half of the checkout state.
type PromoAxis string

const (
	PromoAxisNone    PromoAxis = "no_adjustments"
	PromoAxisApplied PromoAxis = "promo_applied"
)

// LoyaltyAxis is the loyalty half of the checkout state.
type LoyaltyAxis string

const (
	LoyaltyAxisNone    LoyaltyAxis = "no_loyalty"
	LoyaltyAxisApplied LoyaltyAxis = "loyalty_applied"
)

// PromoState holds the single active promo.
type PromoState struct {
	Code    string `json:"code,omitempty"`
	Applied bool   `json:"applied"`
}

// LoyaltyState tracks the redemption against the externally supplied balance.
// 0 <= PointsUsed <= min(AvailablePoints, cart total).
type LoyaltyState struct {
	AvailablePoints int `json:"available_points"`
	PointsUsed      int `json:"points_used"`
}

// Adjustments is the per-checkout promo and loyalty state. The two axes are
// independent. Not safe for concurrent use.
type Adjustments struct {
	rules     []PromoRule
	promo     PromoState
	promoRate decimal.NullDecimal
	loyalty   LoyaltyState
}

// NewAdjustments starts with no promo and no loyalty redemption. With no rules
// the default rule set is used.
func NewAdjustments(rules ...PromoRule) *Adjustments {
	if len(rules) == 0 {
		rules = DefaultPromoRules()
	}
	return &Adjustments{rules: rules}
}

// ApplyPromo activates code when a rule recognizes it, replacing any prior
// promo. Unrecognized codes leave the state untouched and return false.
func (a *Adjustments) ApplyPromo(code string) bool {
	rule := matchRule(a.rules, code)
	if rule == nil {
		return false
	}
	a.promo = PromoState{Code: rule.Code(), Applied: true}
	a.promoRate = decimal.NewNullDecimal(rule.Rate())
	return true
}

// RemovePromo clears the active promo. Returns false if none was active.
func (a *Adjustments) RemovePromo() bool {
	if !a.promo.Applied {
		return false
	}
	a.promo = PromoState{}
	a.promoRate = decimal.NullDecimal{}
	return true
}

// ApplyLoyaltyPoints redeems min(available, cartTotal) points, all or nothing.
func (a *Adjustments) ApplyLoyaltyPoints(available, cartTotal int) int {
	available = nonNegative(available)
	cartTotal = nonNegative(cartTotal)
	used := available
	if cartTotal < used {
		used = cartTotal
	}
	a.loyalty = LoyaltyState{AvailablePoints: available, PointsUsed: used}
	return used
}

// ResetLoyaltyPoints drops the redemption.
func (a *Adjustments) ResetLoyaltyPoints() {
	a.loyalty.PointsUsed = 0
}

// Clamp lowers the redemption to cartTotal after the cart shrinks. Returns
// true when the redemption changed.
func (a *Adjustments) Clamp(cartTotal int) bool {
	cartTotal = nonNegative(cartTotal)
	if a.loyalty.PointsUsed <= cartTotal {
		return false
	}
	a.loyalty.PointsUsed = cartTotal
	return true
}

func (a *Adjustments) Promo() PromoState {
	return a.promo
}

func (a *Adjustments) Loyalty() LoyaltyState {
	return a.loyalty
}

func (a *Adjustments) PromoAxis() PromoAxis {
	if a.promo.Applied {
		return PromoAxisApplied
	}
	return PromoAxisNone
}

func (a *Adjustments) LoyaltyAxis() LoyaltyAxis {
	if a.loyalty.PointsUsed > 0 {
		return LoyaltyAxisApplied
	}
	return LoyaltyAxisNone
}

// Input assembles the calculator input for cartTotal.
func (a *Adjustments) Input(cartTotal int) Input {
	return Input{
		CartTotal:         cartTotal,
		PromoApplied:      a.promo.Applied,
		PromoRate:         a.promoRate,
		LoyaltyPointsUsed: a.loyalty.PointsUsed,
	}
}

// Summarize runs the calculator against cartTotal.
func (a *Adjustments) Summarize(cartTotal int) Summary {
	return Calculate(a.Input(cartTotal))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
