package checkout

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PromoCodeSmart10 is the only promo code the storefront recognizes.
const PromoCodeSmart10 = "SMART10"

// DefaultPromoRate is the flat rate SMART10 takes off the cart total.
var DefaultPromoRate = decimal.New(10, -2)

// PromoRule recognizes a promo code and the flat rate it discounts.
type PromoRule interface {
	Code() string
	Matches(code string) bool
	Rate() decimal.Decimal
}

type percentOff struct {
	code string
	rate decimal.Decimal
}

// PercentOff builds a rule matching code case-insensitively.
func PercentOff(code string, rate decimal.Decimal) PromoRule {
	return percentOff{code: strings.ToUpper(strings.TrimSpace(code)), rate: rate}
}

func (p percentOff) Code() string { return p.code }

func (p percentOff) Matches(code string) bool {
	return p.code != "" && strings.EqualFold(code, p.code)
}

func (p percentOff) Rate() decimal.Decimal { return p.rate }

// DefaultPromoRules returns the shipped rule set: SMART10 at 10%.
func DefaultPromoRules() []PromoRule {
	return []PromoRule{PercentOff(PromoCodeSmart10, DefaultPromoRate)}
}

func matchRule(rules []PromoRule, code string) PromoRule {
	for _, rule := range rules {
		if rule != nil && rule.Matches(code) {
			return rule
		}
	}
	return nil
}
